package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoply-app/shoply-backend/pkg/migrate"
)

func TestInitSchemaMigration(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected a single init schema migration")

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	checks := []string{
		"CREATE TABLE users",
		"CREATE TABLE categories",
		"CREATE TABLE products",
		"CREATE TABLE orders",
		"CREATE TABLE saved_products",
		"CREATE TABLE app_logs",
		"CONSTRAINT products_quantity_check CHECK (quantity >= 0)",
		"CONSTRAINT orders_status_check CHECK (status IN ('pending', 'delivered', 'cancelled'))",
		"CREATE UNIQUE INDEX idx_saved_products_user_product",
		"DROP TABLE IF EXISTS users",
	}
	for _, check := range checks {
		assert.Contains(t, content, check)
	}

	up := strings.Index(content, "-- +goose Up")
	down := strings.Index(content, "-- +goose Down")
	require.True(t, up >= 0 && down > up, "migration must carry goose markers in order")
}

func TestValidateDir(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}
