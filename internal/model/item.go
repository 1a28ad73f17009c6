package model

import (
	"strings"
	"time"
)

// Item is a listing posted for sale or rent.
type Item struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Price            int64       `json:"price"`
	Category         Category    `json:"category"`
	Condition        Condition   `json:"condition"`
	ListingType      ListingType `json:"listing_type"`
	Status           ItemStatus  `json:"status"`
	Images           []string    `json:"images"`
	SellerID         string      `json:"seller_id"`
	RentalDeposit    *int64      `json:"rental_deposit,omitempty"`
	RentalPeriodDays *int        `json:"rental_period_days,omitempty"`
	RentUnit         RentUnit    `json:"rent_unit,omitempty"`
	MeetupPreference string      `json:"meetup_preference,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ListingType is either sell or rent.
type ListingType string

// Listing types.
const (
	ListingSell ListingType = "sell"
	ListingRent ListingType = "rent"
)

// Valid reports whether t is a known listing type.
func (t ListingType) Valid() bool {
	return t == ListingSell || t == ListingRent
}

// ItemStatus is the lifecycle state of a listing.
type ItemStatus string

// Item statuses.
const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusSold      ItemStatus = "sold"
	ItemStatusRented    ItemStatus = "rented"
	ItemStatusRemoved   ItemStatus = "removed"
)

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusSold, ItemStatusRented, ItemStatusRemoved:
		return true
	}
	return false
}

// CanTransition reports whether a listing may move from s to next.
// Only available listings change state; there is no way back to available.
func (s ItemStatus) CanTransition(next ItemStatus) bool {
	if s == next {
		return true
	}
	if s != ItemStatusAvailable {
		return false
	}
	return next == ItemStatusSold || next == ItemStatusRented || next == ItemStatusRemoved
}

// Condition is one of four quality tiers assigned at posting time.
type Condition string

// Conditions, in the order the posting form offers them.
const (
	ConditionNew        Condition = "100% New"
	ConditionLikeNew    Condition = "Like New"
	ConditionGood       Condition = "Good"
	ConditionAcceptable Condition = "Acceptable"
)

// DefaultCondition is used when the server sends a value we do not know.
const DefaultCondition = ConditionGood

// Conditions lists every condition.
var Conditions = []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionAcceptable}

// ConditionDescription returns the help text shown next to a condition.
func ConditionDescription(c Condition) string {
	switch c {
	case ConditionNew:
		return "Brand new, never used, in original packaging."
	case ConditionLikeNew:
		return "Barely used, no visible wear, works perfectly."
	case ConditionGood:
		return "Used regularly, works perfectly, shows minor scratches/wear."
	case ConditionAcceptable:
		return "Shows wear, fully functional, may have cosmetic issues."
	}
	return ""
}

// ParseCondition maps a wire string to a Condition, ignoring case and
// surrounding whitespace. Unknown values return DefaultCondition and false.
func ParseCondition(s string) (Condition, bool) {
	norm := strings.TrimSpace(s)
	for _, c := range Conditions {
		if strings.EqualFold(norm, string(c)) {
			return c, true
		}
	}
	return DefaultCondition, false
}

// RentUnit is the billing period of a rental listing.
type RentUnit string

// Rent units.
const (
	RentDay   RentUnit = "day"
	RentWeek  RentUnit = "week"
	RentMonth RentUnit = "month"
)

// Days returns the rental period length for the unit, or 0 if unknown.
func (u RentUnit) Days() int {
	switch u {
	case RentDay:
		return 1
	case RentWeek:
		return 7
	case RentMonth:
		return 30
	}
	return 0
}

// ItemFilters narrows the browsing view. Zero values mean "no filter".
type ItemFilters struct {
	Category    Category
	ListingType ListingType
	Condition   Condition
	MinPrice    *int64
	MaxPrice    *int64
	Search      string
}

// Active reports whether any predicate is set.
func (f ItemFilters) Active() bool {
	return f.Category != "" || f.ListingType != "" || f.Condition != "" ||
		f.MinPrice != nil || f.MaxPrice != nil || strings.TrimSpace(f.Search) != ""
}

// Matches reports whether item satisfies every active predicate and is
// still available for browsing.
func (f ItemFilters) Matches(item Item) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.ListingType != "" && item.ListingType != f.ListingType {
		return false
	}
	if f.Condition != "" && item.Condition != f.Condition {
		return false
	}
	if f.MinPrice != nil && item.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && item.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Title), q) &&
			!strings.Contains(strings.ToLower(item.Description), q) {
			return false
		}
	}
	return item.Status == ItemStatusAvailable
}
