package validate

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/erazemk/dormswap/internal/model"
)

func validItem() ItemInput {
	return ItemInput{
		Title:       "abcde",
		Description: strings.Repeat("x", 20),
		Price:       1000,
		Category:    "textbooks",
		Condition:   "Good",
		ListingType: "sell",
		Images:      []string{"a.png"},
	}
}

func TestItemFormValid(t *testing.T) {
	r := ItemForm(validItem())
	if !r.Valid {
		t.Fatalf("expected valid, got errors %v", r.Errors)
	}
	if r.Err() != nil {
		t.Errorf("expected nil Err for valid result")
	}
}

func TestItemFormTitleTooShort(t *testing.T) {
	in := validItem()
	in.Title = "abcd"

	r := ItemForm(in)
	if r.Valid {
		t.Fatal("expected invalid")
	}
	if _, ok := r.Errors["title"]; !ok {
		t.Errorf("expected title error, got %v", r.Errors)
	}
}

func TestItemFormRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ItemInput)
		field  string
	}{
		{"title whitespace only", func(in *ItemInput) { in.Title = "     " }, "title"},
		{"title too long", func(in *ItemInput) { in.Title = strings.Repeat("t", 101) }, "title"},
		{"description short", func(in *ItemInput) { in.Description = strings.Repeat("d", 19) }, "description"},
		{"description long", func(in *ItemInput) { in.Description = strings.Repeat("d", 2001) }, "description"},
		{"zero price", func(in *ItemInput) { in.Price = 0 }, "price"},
		{"negative price", func(in *ItemInput) { in.Price = -5 }, "price"},
		{"price over cap", func(in *ItemInput) { in.Price = PriceMax + 1 }, "price"},
		{"no category", func(in *ItemInput) { in.Category = "" }, "category"},
		{"no condition", func(in *ItemInput) { in.Condition = "" }, "condition"},
		{"no listing type", func(in *ItemInput) { in.ListingType = "" }, "listingType"},
		{"no images", func(in *ItemInput) { in.Images = nil }, "images"},
		{"too many images", func(in *ItemInput) { in.Images = []string{"1", "2", "3", "4", "5", "6"} }, "images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validItem()
			tt.mutate(&in)
			r := ItemForm(in)
			if r.Valid {
				t.Fatal("expected invalid")
			}
			if _, ok := r.Errors[tt.field]; !ok {
				t.Errorf("expected %s error, got %v", tt.field, r.Errors)
			}
			if len(r.Errors) != 1 {
				t.Errorf("expected exactly one error, got %v", r.Errors)
			}
		})
	}
}

func TestItemFormBoundaries(t *testing.T) {
	in := validItem()
	in.Title = strings.Repeat("t", 100)
	in.Description = strings.Repeat("d", 2000)
	in.Price = PriceMax
	in.Images = []string{"1", "2", "3", "4", "5"}

	if r := ItemForm(in); !r.Valid {
		t.Errorf("expected upper bounds to be valid, got %v", r.Errors)
	}
}

func TestItemFormRentRequiresDeposit(t *testing.T) {
	in := validItem()
	in.ListingType = "rent"
	in.RentalPeriodDays = 7

	r := ItemForm(in)
	if r.Valid {
		t.Fatal("expected invalid rent listing without deposit")
	}
	if _, ok := r.Errors["rentalDeposit"]; !ok {
		t.Errorf("expected rentalDeposit error, got %v", r.Errors)
	}

	in.RentalDeposit = 200000
	in.RentalPeriodDays = 0
	r = ItemForm(in)
	if _, ok := r.Errors["rentalPeriodDays"]; !ok {
		t.Errorf("expected rentalPeriodDays error, got %v", r.Errors)
	}

	in.RentalPeriodDays = 1
	if r := ItemForm(in); !r.Valid {
		t.Errorf("expected valid rent listing, got %v", r.Errors)
	}
}

func TestItemFormFirstFailingRuleWins(t *testing.T) {
	in := validItem()
	in.Title = "ab" + strings.Repeat(" ", 120)

	r := ItemForm(in)
	if got := r.Errors["title"]; got != "Title must be less than 100 characters" {
		t.Errorf("title error = %q, want the length limit", got)
	}
}

func TestItemFormMessages(t *testing.T) {
	in := ItemInput{ListingType: "rent", Price: PriceMax + 1}

	r := ItemForm(in)
	want := map[string]string{
		"title":            "Title must be at least 5 characters",
		"description":      "Description must be at least 20 characters",
		"price":            "Price cannot exceed 100,000,000 VND",
		"category":         "Please select a category",
		"condition":        "Please select item condition",
		"images":           "Please upload at least one image",
		"rentalDeposit":    "Rental deposit is required",
		"rentalPeriodDays": "Rental period must be at least 1 day",
	}
	if len(r.Errors) != len(want) {
		t.Errorf("got %d errors, want %d: %v", len(r.Errors), len(want), r.Errors)
	}
	for field, msg := range want {
		if r.Errors[field] != msg {
			t.Errorf("%s = %q, want %q", field, r.Errors[field], msg)
		}
	}
}

func TestItemFormNegativeDeposit(t *testing.T) {
	in := validItem()
	in.ListingType = "rent"
	in.RentalDeposit = -1
	in.RentalPeriodDays = 7

	r := ItemForm(in)
	if got := r.Errors["rentalDeposit"]; got != "Rental deposit cannot be negative" {
		t.Errorf("rentalDeposit error = %q", got)
	}
}

func TestItemFormDoesNotMutateInput(t *testing.T) {
	in := validItem()
	in.Images = []string{"a.png", "b.png"}
	before := strings.Join(in.Images, ",")

	ItemForm(in)
	if strings.Join(in.Images, ",") != before {
		t.Error("ItemForm mutated images")
	}
}

func TestProfileForm(t *testing.T) {
	tests := []struct {
		name  string
		in    ProfileInput
		field string
	}{
		{"valid", ProfileInput{Name: "An", Phone: "0912345678", RoomNumber: "202A"}, ""},
		{"valid +84", ProfileInput{Name: "Binh", Phone: "+84 912 345 678"}, ""},
		{"no optional fields", ProfileInput{Name: "Chi"}, ""},
		{"short name", ProfileInput{Name: " a "}, "name"},
		{"bad phone prefix", ProfileInput{Name: "Dung", Phone: "0212345678"}, "phone"},
		{"short phone", ProfileInput{Name: "Dung", Phone: "091234567"}, "phone"},
		{"bad room", ProfileInput{Name: "Em", RoomNumber: "12"}, "roomNumber"},
		{"room two letters", ProfileInput{Name: "Em", RoomNumber: "101AB"}, "roomNumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ProfileForm(tt.in)
			if tt.field == "" {
				if !r.Valid {
					t.Errorf("expected valid, got %v", r.Errors)
				}
				return
			}
			if _, ok := r.Errors[tt.field]; !ok {
				t.Errorf("expected %s error, got %v", tt.field, r.Errors)
			}
		})
	}
}

func TestResultErr(t *testing.T) {
	r := ProfileForm(ProfileInput{})
	err := r.Err()
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *model.ValidationError
	if !errors.As(err, &verr) || verr.Fields["name"] == "" {
		t.Errorf("expected name field in validation error, got %v", err)
	}
}

func TestEmail(t *testing.T) {
	if !Email("sarah.johnson@university.edu.vn") {
		t.Error("expected valid email")
	}
	for _, s := range []string{"", "no-at", "a@b", "a b@c.d"} {
		if Email(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestPriceFormatting(t *testing.T) {
	tests := []struct {
		n    int64
		text string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{1250000, "1.250.000"},
		{100000000, "100.000.000"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.n); got != tt.text {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.n, got, tt.text)
		}
		if got := ParsePrice(tt.text); got != tt.n {
			t.Errorf("ParsePrice(%q) = %d, want %d", tt.text, got, tt.n)
		}
	}

	if got := FormatPrice(-1250000); got != "-1.250.000" {
		t.Errorf("FormatPrice(-1250000) = %q", got)
	}
	if got := FormatPrice(math.MinInt64); got != "-9.223.372.036.854.775.808" {
		t.Errorf("FormatPrice(MinInt64) = %q", got)
	}

	if ParsePrice("") != 0 || ParsePrice("abc") != 0 {
		t.Error("expected empty input to parse as 0")
	}
}
