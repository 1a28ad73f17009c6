package catalog

import (
	"net/url"
	"testing"

	"github.com/erazemk/dormswap/internal/model"
)

func TestFiltersFromQuery(t *testing.T) {
	q := url.Values{
		"category":     {"furniture"},
		"listing_type": {"lease"},
		"condition":    {"like new"},
		"min_price":    {"1.000"},
		"q":            {"  lamp "},
	}
	f := FiltersFromQuery(q)

	if f.Category != model.CategoryFurniture {
		t.Errorf("Category = %q", f.Category)
	}
	if f.ListingType != "" {
		t.Errorf("unknown listing type should be dropped, got %q", f.ListingType)
	}
	if f.Condition != model.ConditionLikeNew {
		t.Errorf("Condition = %q", f.Condition)
	}
	if f.MinPrice == nil || *f.MinPrice != 1000 {
		t.Errorf("MinPrice = %v", f.MinPrice)
	}
	if f.MaxPrice != nil {
		t.Error("MaxPrice should be unset")
	}
	if f.Search != "lamp" {
		t.Errorf("Search = %q", f.Search)
	}
}


func TestFiltersFromQuery_PricesWithoutDigits(t *testing.T) {
	f := FiltersFromQuery(url.Values{
		"min_price": {"abc"},
		"max_price": {"abc"},
	})
	if f.MinPrice != nil || f.MaxPrice != nil {
		t.Errorf("non-numeric prices should be dropped, got min=%v max=%v", f.MinPrice, f.MaxPrice)
	}

	f = FiltersFromQuery(url.Values{"max_price": {"0"}})
	if f.MaxPrice == nil || *f.MaxPrice != 0 {
		t.Errorf("explicit zero should be kept, got %v", f.MaxPrice)
	}
}
