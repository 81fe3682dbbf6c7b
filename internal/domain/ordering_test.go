package domain

import (
	"testing"
	"time"
)

func TestSortForDisplay(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	undated := &Product{ID: "c", Name: "mist", CreatedAt: base}
	early := &Product{ID: "a", Name: "spf", ExpiryDate: "2024-06-01", CreatedAt: base.Add(2 * time.Hour)}
	late := &Product{ID: "b", Name: "serum", ExpiryDate: "2025-01-01", CreatedAt: base.Add(time.Hour)}

	products := []*Product{undated, late, early}
	SortForDisplay(products)

	wantOrder := []string{"a", "b", "c"}
	for i, want := range wantOrder {
		if products[i].ID != want {
			t.Fatalf("position %d: got %q, want %q", i, products[i].ID, want)
		}
	}
}

func TestSortForDisplayTieBreaks(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Same expiry date: the earlier-created product wins.
	first := &Product{ID: "z", ExpiryDate: "2024-06-01", CreatedAt: base}
	second := &Product{ID: "a", ExpiryDate: "2024-06-01", CreatedAt: base.Add(time.Minute)}

	// Same expiry and creation time: falls back to ID.
	twinA := &Product{ID: "m", CreatedAt: base}
	twinB := &Product{ID: "n", CreatedAt: base}

	products := []*Product{twinB, second, twinA, first}
	SortForDisplay(products)

	wantOrder := []string{"z", "a", "m", "n"}
	for i, want := range wantOrder {
		if products[i].ID != want {
			t.Fatalf("position %d: got %q, want %q", i, products[i].ID, want)
		}
	}
}

func TestSortForDisplayUndatedAlwaysLast(t *testing.T) {
	products := []*Product{
		{ID: "1"},
		{ID: "2", ExpiryDate: "2099-12-31"},
		{ID: "3"},
		{ID: "4", ExpiryDate: "2000-01-01"},
	}
	SortForDisplay(products)

	for i, p := range products[:2] {
		if p.ExpiryDate == "" {
			t.Fatalf("position %d: undated product sorted before dated ones", i)
		}
	}
	for i, p := range products[2:] {
		if p.ExpiryDate != "" {
			t.Fatalf("position %d: dated product sorted after undated ones", i+2)
		}
	}
}
