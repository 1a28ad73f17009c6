package catalog

import (
	"net/url"
	"strings"

	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/validate"
)

// FiltersFromQuery reads browsing filters from query parameters: category,
// listing_type, condition, min_price, max_price and q. Unknown category and
// listing type values are dropped, as are prices without digits.
func FiltersFromQuery(q url.Values) model.ItemFilters {
	f := model.ItemFilters{
		Category:    model.Category(q.Get("category")),
		ListingType: model.ListingType(q.Get("listing_type")),
		Search:      strings.TrimSpace(q.Get("q")),
	}
	if !f.Category.Valid() {
		f.Category = ""
	}
	if !f.ListingType.Valid() {
		f.ListingType = ""
	}
	if c, ok := model.ParseCondition(q.Get("condition")); ok {
		f.Condition = c
	}
	f.MinPrice = priceParam(q.Get("min_price"))
	f.MaxPrice = priceParam(q.Get("max_price"))
	return f
}

// priceParam returns nil for a value without any digits.
func priceParam(v string) *int64 {
	if !strings.ContainsAny(v, "0123456789") {
		return nil
	}
	n := validate.ParsePrice(v)
	return &n
}
