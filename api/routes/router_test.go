package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shoply-app/shoply-backend/internal/auth"
	"github.com/shoply-app/shoply-backend/internal/categories"
	"github.com/shoply-app/shoply-backend/internal/orders"
	"github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/internal/users"
	"github.com/shoply-app/shoply-backend/internal/wishlist"
	pkgauth "github.com/shoply-app/shoply-backend/pkg/auth"
	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/enums"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/logger"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessionChecker struct{ ok bool }

func (s stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return s.ok, nil
}

type memoryRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemoryRateStore() *memoryRateStore {
	return &memoryRateStore{counts: map[string]int64{}}
}

func (s *memoryRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterInput) (*auth.RegisteredDTO, error) {
	return &auth.RegisteredDTO{Message: "check your email"}, nil
}
func (stubAuthService) VerifyOTP(context.Context, auth.VerifyOTPInput) (*auth.SessionDTO, error) {
	return nil, pkgErrors.New(pkgErrors.CodeValidation, "wrong verification code")
}
func (stubAuthService) ResendOTP(context.Context, string) error { return nil }
func (stubAuthService) Login(context.Context, auth.LoginInput) (*auth.SessionDTO, error) {
	return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "invalid email or password")
}
func (stubAuthService) ForgotPassword(context.Context, auth.ForgotPasswordInput) error { return nil }
func (stubAuthService) Refresh(context.Context, string) (*auth.SessionDTO, error) {
	return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "session expired")
}
func (stubAuthService) Logout(context.Context, string) error { return nil }

type stubUsersService struct{}

func (stubUsersService) GetProfile(context.Context, uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{Username: "shopper"}, nil
}
func (stubUsersService) ChangeUsername(context.Context, uuid.UUID, users.ChangeUsernameInput) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubUsersService) ChangeBirthYear(context.Context, uuid.UUID, users.ChangeBirthYearInput) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubUsersService) ChangeAddress(context.Context, uuid.UUID, users.ChangeAddressInput) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubUsersService) ChangePassword(context.Context, uuid.UUID, users.ChangePasswordInput) error {
	return nil
}
func (stubUsersService) ChangeEmail(context.Context, uuid.UUID, string, users.ChangeEmailInput) error {
	return nil
}
func (stubUsersService) ChangeUserpic(context.Context, uuid.UUID, string, io.Reader) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubProductsService struct {
	created bool
}

func (s *stubProductsService) List(context.Context, string, pagination.Params) (*products.ProductsPageDTO, error) {
	return &products.ProductsPageDTO{Items: []products.ProductDTO{}}, nil
}
func (s *stubProductsService) Get(context.Context, string) (*products.ProductDTO, error) {
	return &products.ProductDTO{Title: "Teapot"}, nil
}
func (s *stubProductsService) Create(context.Context, uuid.UUID, products.CreateInput, []products.ImageUpload) (*products.ProductDTO, error) {
	s.created = true
	return &products.ProductDTO{}, nil
}
func (s *stubProductsService) Update(context.Context, string, products.UpdateInput, []products.ImageUpload) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}
func (s *stubProductsService) Delete(context.Context, string) error { return nil }

type stubCategoriesService struct{}

func (stubCategoriesService) List(context.Context, string, pagination.Params) (*categories.CategoriesPageDTO, error) {
	return &categories.CategoriesPageDTO{}, nil
}
func (stubCategoriesService) Get(context.Context, string, pagination.Params) (*categories.CategoryDetailDTO, error) {
	return &categories.CategoryDetailDTO{}, nil
}
func (stubCategoriesService) Create(context.Context, uuid.UUID, categories.CreateInput, *categories.ImageUpload) (*categories.CategoryDTO, error) {
	return &categories.CategoryDTO{}, nil
}
func (stubCategoriesService) Update(context.Context, string, categories.UpdateInput, *categories.ImageUpload) (*categories.CategoryDTO, error) {
	return &categories.CategoryDTO{}, nil
}
func (stubCategoriesService) Delete(context.Context, string) error { return nil }

type stubOrdersService struct{}

func (stubOrdersService) Place(context.Context, uuid.UUID, orders.PlaceInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: "pending"}, nil
}
func (stubOrdersService) ListMine(context.Context, uuid.UUID, pagination.Params) (*orders.OrdersPageDTO, error) {
	return &orders.OrdersPageDTO{}, nil
}
func (stubOrdersService) Cancel(context.Context, uuid.UUID, string) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: "cancelled"}, nil
}
func (stubOrdersService) MarkDelivered(context.Context, uuid.UUID, string) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: "delivered"}, nil
}
func (stubOrdersService) AmendAddress(context.Context, uuid.UUID, string, orders.AmendAddressInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}
func (stubOrdersService) AmendPaymentMethod(context.Context, uuid.UUID, string, orders.AmendPaymentMethodInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

type stubWishlistService struct {
	toggled []string
}

func (s *stubWishlistService) Toggle(_ context.Context, _ uuid.UUID, productID string) (*wishlist.ToggleDTO, error) {
	s.toggled = append(s.toggled, productID)
	return &wishlist.ToggleDTO{Saved: true, Message: "Product saved"}, nil
}
func (s *stubWishlistService) List(context.Context, uuid.UUID, pagination.Params) (*wishlist.PageDTO, error) {
	return &wishlist.PageDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:      "access-secret",
			RefreshSecret:     "refresh-secret",
			Issuer:            "shoply-test",
			AccessTTLMinutes:  15,
			RefreshTTLMinutes: 60,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginEmailLimit:    2,
			LoginIPLimit:       3,
			RegisterWindow:     time.Minute,
			RegisterEmailLimit: 2,
			RegisterIPLimit:    3,
		},
		Uploads: config.UploadsConfig{Dir: "upload", MaxUploadMB: 10, MaxImages: 4},
	}
}

type routerFixture struct {
	handler  http.Handler
	cfg      *config.Config
	products *stubProductsService
	wishlist *stubWishlistService
	rates    *memoryRateStore
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := testConfig()
	f := &routerFixture{
		cfg:      cfg,
		products: &stubProductsService{},
		wishlist: &stubWishlistService{},
		rates:    newMemoryRateStore(),
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.Disabled, Output: io.Discard})

	f.handler = NewRouter(Params{
		Config:            cfg,
		Logger:            logg,
		DB:                stubPinger{},
		Cache:             stubPinger{},
		RateLimit:         f.rates,
		Sessions:          stubSessionChecker{ok: true},
		AuthService:       stubAuthService{},
		UsersService:      stubUsersService{},
		ProductsService:   f.products,
		CategoriesService: stubCategoriesService{},
		OrdersService:     stubOrdersService{},
		WishlistService:   f.wishlist,
	})
	return f
}

func (f *routerFixture) token(t *testing.T, role enums.Role) string {
	t.Helper()

	token, err := pkgauth.MintAccessToken(f.cfg.JWT, time.Now(), pkgauth.TokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

func (f *routerFixture) do(t *testing.T, method, target, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(t, http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}

func TestCatalogIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(t, http.MethodGet, "/api/v1/products/", ""); rec.Code != http.StatusOK {
		t.Fatalf("products list: expected 200, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/categories/", ""); rec.Code != http.StatusOK {
		t.Fatalf("categories list: expected 200, got %d", rec.Code)
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(t, http.MethodGet, "/api/v1/orders/", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/orders/", f.token(t, enums.RoleUser)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a token, got %d", rec.Code)
	}
}

func TestProductMutationsRequireStaff(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/v1/products/"+uuid.NewString(), f.token(t, enums.RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a regular user, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/api/v1/products/"+uuid.NewString(), f.token(t, enums.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", rec.Code)
	}
}

func TestWishlistToggleRoute(t *testing.T) {
	f := newRouterFixture(t)
	productID := uuid.NewString()

	rec := f.do(t, http.MethodGet, "/api/v1/products/"+productID+"/save", f.token(t, enums.RoleUser))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(f.wishlist.toggled) != 1 || f.wishlist.toggled[0] != productID {
		t.Fatalf("expected toggle for %s, got %v", productID, f.wishlist.toggled)
	}
	if !strings.Contains(rec.Body.String(), "Product saved") {
		t.Fatalf("expected toggle message in body, got %s", rec.Body.String())
	}
}

func TestLoginIsRateLimitedPerIP(t *testing.T) {
	f := newRouterFixture(t)

	var last int
	for i := 0; i < f.cfg.AuthRateLimit.LoginIPLimit+1; i++ {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting the limit, got %d", last)
	}
}
