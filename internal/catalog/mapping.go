package catalog

import (
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/model"
)

// FromRecord maps a backend listing onto model.Item. It never fails:
// unknown conditions and categories fall back to defaults with a warning.
func FromRecord(rec apiclient.ItemRecord, log *slog.Logger) model.Item {
	id := rec.Identifier()

	cond, ok := model.ParseCondition(rec.ItemCondition)
	if !ok {
		log.Warn("unknown item condition, using default",
			"item_id", id, "condition", rec.ItemCondition, "default", model.DefaultCondition)
	}

	category := model.CategoryOthers
	if rec.CategoryID != 0 {
		var known bool
		category, known = model.CategoryFromWireID(int(rec.CategoryID))
		if !known {
			log.Warn("unknown category id", "item_id", id, "category_id", int64(rec.CategoryID))
		}
	}

	listing := model.ListingType(strings.ToLower(strings.TrimSpace(rec.ListingType)))
	if listing == "" {
		listing = model.ListingType(strings.ToLower(strings.TrimSpace(rec.Type)))
	}
	if !listing.Valid() {
		listing = model.ListingSell
	}

	status := model.ItemStatus(strings.ToLower(strings.TrimSpace(rec.Status)))
	if status == "" {
		status = model.ItemStatusAvailable
	} else if !status.Valid() {
		log.Warn("unknown item status", "item_id", id, "status", rec.Status)
	}

	item := model.Item{
		ID:               id,
		Title:            rec.Title,
		Description:      rec.Description,
		Price:            int64(rec.Price),
		Category:         category,
		Condition:        cond,
		ListingType:      listing,
		Status:           status,
		Images:           append([]string(nil), rec.ImageList()...),
		SellerID:         string(rec.SellerID),
		MeetupPreference: rec.MeetupPreference,
		CreatedAt:        timeOrZero(rec.CreatedAt),
		UpdatedAt:        timeOrZero(rec.UpdatedAt),
	}

	if rd := rec.RentalDetails; rd != nil {
		item.RentUnit = model.RentUnit(rd.RentUnit)
		if rd.DepositAmount > 0 {
			deposit := int64(rd.DepositAmount)
			item.RentalDeposit = &deposit
		}
		if rd.MinRentPeriod > 0 {
			days := int(rd.MinRentPeriod)
			item.RentalPeriodDays = &days
		}
	}

	return item
}

// ToPayload builds the create/update body for item, sold by sellerID.
func ToPayload(item model.Item, sellerID string) apiclient.PostPayload {
	categoryID, _ := model.CategoryWireID(item.Category)

	status := item.Status
	if status == "" {
		status = model.ItemStatusAvailable
	}

	p := apiclient.PostPayload{
		SellerID:         sellerID,
		CategoryID:       categoryID,
		Title:            item.Title,
		Description:      item.Description,
		Price:            item.Price,
		ItemCondition:    string(item.Condition),
		ListingType:      string(item.ListingType),
		Status:           string(status),
		MeetupPreference: item.MeetupPreference,
	}

	if item.ListingType == model.ListingRent {
		rd := &apiclient.RentalDetails{RentUnit: string(item.RentUnit)}
		if item.RentalDeposit != nil {
			rd.DepositAmount = apiclient.FlexInt(*item.RentalDeposit)
		}
		days := item.RentUnit.Days()
		if item.RentalPeriodDays != nil {
			days = *item.RentalPeriodDays
		}
		rd.MinRentPeriod = apiclient.FlexInt(days)
		rd.MaxRentPeriod = apiclient.FlexInt(days)
		p.RentalDetails = rd
	}

	return p
}

// MeetupPreference formats the pickup note for a dorm building.
func MeetupPreference(building string) string {
	building = strings.TrimSpace(building)
	if building == "" {
		return ""
	}
	return "Pick up from dormitory building " + building
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
