package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/model"
)

func fixtureItems() []model.Item {
	statuses := []model.ItemStatus{model.ItemStatusAvailable, model.ItemStatusSold, model.ItemStatusAvailable, model.ItemStatusRemoved, model.ItemStatusRented}
	listings := []model.ListingType{model.ListingSell, model.ListingRent}
	var items []model.Item
	for i := 0; i < 40; i++ {
		items = append(items, model.Item{
			ID:          fmt.Sprint(i),
			Title:       []string{"Desk Fan", "Mini Fridge", "Calculus Book", "Hoodie"}[i%4],
			Description: []string{"quiet and cold", "great for dorms", "MATH 101", "size M"}[i%3],
			Price:       int64(100000 * (i + 1)),
			Category:    model.Categories[i%len(model.Categories)],
			Condition:   model.Conditions[i%len(model.Conditions)],
			ListingType: listings[i%2],
			Status:      statuses[i%len(statuses)],
		})
	}
	return items
}

func TestFilterItems_SubsetMatchingEveryPredicate(t *testing.T) {
	items := fixtureItems()
	lo, hi := int64(500000), int64(3000000)

	var filters []model.ItemFilters
	for _, c := range append([]model.Category{""}, model.Categories...) {
		for _, l := range []model.ListingType{"", model.ListingSell, model.ListingRent} {
			for _, cond := range append([]model.Condition{""}, model.Conditions...) {
				for _, q := range []string{"", "fridge", "DORMS"} {
					filters = append(filters,
						model.ItemFilters{Category: c, ListingType: l, Condition: cond, Search: q},
						model.ItemFilters{Category: c, ListingType: l, Condition: cond, Search: q, MinPrice: &lo, MaxPrice: &hi},
					)
				}
			}
		}
	}

	known := map[string]model.Item{}
	for _, it := range items {
		known[it.ID] = it
	}

	for _, f := range filters {
		got := FilterItems(items, f)
		for _, it := range got {
			require.Equal(t, known[it.ID], it, "result must come from the input")
			assert.Equal(t, model.ItemStatusAvailable, it.Status)
			if f.Category != "" {
				assert.Equal(t, f.Category, it.Category)
			}
			if f.ListingType != "" {
				assert.Equal(t, f.ListingType, it.ListingType)
			}
			if f.Condition != "" {
				assert.Equal(t, f.Condition, it.Condition)
			}
			if f.MinPrice != nil {
				assert.GreaterOrEqual(t, it.Price, *f.MinPrice)
			}
			if f.MaxPrice != nil {
				assert.LessOrEqual(t, it.Price, *f.MaxPrice)
			}
			if f.Search != "" {
				q := strings.ToLower(f.Search)
				assert.True(t, strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q))
			}
		}
	}
}

func TestFilterItems_NoFiltersKeepsAvailableInOrder(t *testing.T) {
	items := fixtureItems()
	got := FilterItems(items, model.ItemFilters{})

	var want []string
	for _, it := range items {
		if it.Status == model.ItemStatusAvailable {
			want = append(want, it.ID)
		}
	}
	assert.Equal(t, want, ids(got))
}

func TestMappingRoundTrip(t *testing.T) {
	for _, c := range model.Conditions {
		for _, spelling := range []string{string(c), strings.ToLower(string(c)), strings.ToUpper(string(c)), "  " + string(c) + " "} {
			rec := apiclient.ItemRecord{ID: "17", Price: 625000, ItemCondition: spelling, CategoryID: 2}

			item := FromRecord(rec, newTestLogger())
			assert.Equal(t, "17", item.ID)
			assert.Equal(t, int64(625000), item.Price)
			assert.Equal(t, c, item.Condition, "spelling %q", spelling)

			p := ToPayload(item, "u1")
			back := FromRecord(apiclient.ItemRecord{
				ID:            apiclient.FlexString(item.ID),
				Price:         apiclient.FlexInt(p.Price),
				ItemCondition: p.ItemCondition,
				CategoryID:    apiclient.FlexInt(p.CategoryID),
			}, newTestLogger())
			assert.Equal(t, item.ID, back.ID)
			assert.Equal(t, item.Price, back.Price)
			assert.Equal(t, item.Condition, back.Condition)
			assert.Equal(t, item.Category, back.Category)
		}
	}
}

func TestFromRecord_Fallbacks(t *testing.T) {
	item := FromRecord(apiclient.ItemRecord{
		ItemID:        "9",
		ItemCondition: "Mint",
		CategoryID:    99,
		Type:          "RENT",
		ImageURLs:     []string{"a.jpg"},
		RentalDetails: &apiclient.RentalDetails{RentUnit: "week", DepositAmount: 150000, MinRentPeriod: 7},
	}, newTestLogger())

	assert.Equal(t, "9", item.ID)
	assert.Equal(t, model.DefaultCondition, item.Condition)
	assert.Equal(t, model.CategoryOthers, item.Category)
	assert.Equal(t, model.ListingRent, item.ListingType)
	assert.Equal(t, model.ItemStatusAvailable, item.Status)
	assert.Equal(t, []string{"a.jpg"}, item.Images)
	require.NotNil(t, item.RentalDeposit)
	assert.Equal(t, int64(150000), *item.RentalDeposit)
	require.NotNil(t, item.RentalPeriodDays)
	assert.Equal(t, 7, *item.RentalPeriodDays)
	assert.Equal(t, model.RentWeek, item.RentUnit)
}

func TestToPayload_Rent(t *testing.T) {
	deposit := int64(200000)
	p := ToPayload(model.Item{
		Category:      model.CategoryAppliances,
		Condition:     model.ConditionGood,
		ListingType:   model.ListingRent,
		RentalDeposit: &deposit,
		RentUnit:      model.RentMonth,
	}, "u1")

	assert.Equal(t, 0, p.CategoryID, "appliances has no backend id")
	assert.Equal(t, "available", p.Status)
	require.NotNil(t, p.RentalDetails)
	assert.Equal(t, "month", p.RentalDetails.RentUnit)
	assert.Equal(t, apiclient.FlexInt(200000), p.RentalDetails.DepositAmount)
	assert.Equal(t, apiclient.FlexInt(30), p.RentalDetails.MinRentPeriod)
	assert.Equal(t, apiclient.FlexInt(30), p.RentalDetails.MaxRentPeriod)
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	items := []model.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	orig := append([]model.Item(nil), items...)

	assert.Equal(t, []string{"n", "a", "b", "c"}, ids(prependItem(items, model.Item{ID: "n"})))
	assert.Equal(t, []string{"b", "a", "c"}, ids(prependItem(items, model.Item{ID: "b"})))
	assert.Equal(t, []string{"a", "x", "c"}, ids(replaceItem(items, "b", model.Item{ID: "x"})))
	assert.Equal(t, []string{"a", "c"}, ids(removeItem(items, "b")))
	assert.Equal(t, []string{"a", "b", "c"}, ids(removeItem(items, "zzz")))

	assert.Equal(t, orig, items)
}

func TestPatchApply(t *testing.T) {
	title := "Desk Fan - Like New"
	unit := model.RentWeek
	item := model.Item{ID: "5", Title: "Desk Fan", Price: 375000, Images: []string{"a.jpg"}}

	got := Patch{Title: &title, RentUnit: &unit}.Apply(item)

	assert.Equal(t, title, got.Title)
	assert.Equal(t, int64(375000), got.Price)
	require.NotNil(t, got.RentalPeriodDays)
	assert.Equal(t, 7, *got.RentalPeriodDays)

	got.Images[0] = "changed.jpg"
	assert.Equal(t, "a.jpg", item.Images[0], "Apply must not share the images slice")
}
