package pagination

import "testing"

func TestNormalize(t *testing.T) {
	p := Normalize(Params{})
	if p.Page != DefaultPage || p.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	p = Normalize(Params{Page: -2, Limit: 500})
	if p.Page != DefaultPage {
		t.Fatalf("negative page should normalize to %d, got %d", DefaultPage, p.Page)
	}
	if p.Limit != MaxLimit {
		t.Fatalf("oversized limit should clamp to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 1, Limit: 10}).Offset(); got != 0 {
		t.Fatalf("page 1 offset should be 0, got %d", got)
	}
	if got := (Params{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Fatalf("page 3 offset should be 20, got %d", got)
	}
}

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(Params{Page: 2, Limit: 10}, 25)

	if meta.TotalPages != 3 {
		t.Fatalf("expected 3 pages for 25 items, got %d", meta.TotalPages)
	}
	if meta.Prev == nil || meta.Prev.Page != 1 {
		t.Fatalf("expected prev page 1, got %+v", meta.Prev)
	}
	if meta.Next == nil || meta.Next.Page != 3 {
		t.Fatalf("expected next page 3, got %+v", meta.Next)
	}

	first := BuildMeta(Params{Page: 1, Limit: 10}, 25)
	if first.Prev != nil {
		t.Fatalf("first page should have nil prev, got %+v", first.Prev)
	}

	last := BuildMeta(Params{Page: 3, Limit: 10}, 25)
	if last.Next != nil {
		t.Fatalf("last page should have nil next, got %+v", last.Next)
	}

	empty := BuildMeta(Params{Page: 1, Limit: 10}, 0)
	if empty.TotalPages != 0 || empty.Prev != nil || empty.Next != nil {
		t.Fatalf("empty result should have no pages or links: %+v", empty)
	}
}
