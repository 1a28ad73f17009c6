// Package validate holds the pure form checks run before anything is sent
// to the backend.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/dormswap/internal/model"
)

// Limits enforced by the posting form.
const (
	TitleMin       = 5
	TitleMax       = 100
	DescriptionMin = 20
	DescriptionMax = 2000
	PriceMax       = 100_000_000
	ImagesMin      = 1
	ImagesMax      = 5
	NameMin        = 2
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^(0|\+84)[3-9][0-9]{8}$`)
	roomRe  = regexp.MustCompile(`^[0-9]{3,4}[A-Za-z]?$`)
	spaceRe = regexp.MustCompile(`\s`)
)

var checker = newChecker()

// newChecker builds the validator shared by every form. Field errors are
// reported under the name in the struct's form tag.
func newChecker() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	mustRegister(v, "trimmed_min", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			panic("trimmed_min: bad param " + fl.Param())
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})
	mustRegister(v, "vn_phone", func(fl validator.FieldLevel) bool {
		return Phone(fl.Field().String())
	})
	mustRegister(v, "room_number", func(fl validator.FieldLevel) bool {
		return roomRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "contact_email", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// messages maps "field.tag" to the text shown next to the field.
var messages = map[string]string{
	"title.trimmed_min":            "Title must be at least 5 characters",
	"title.max":                    "Title must be less than 100 characters",
	"description.trimmed_min":      "Description must be at least 20 characters",
	"description.max":              "Description must be less than 2000 characters",
	"price.gt":                     "Price must be greater than 0",
	"price.lte":                    "Price cannot exceed 100,000,000 VND",
	"category.required":            "Please select a category",
	"condition.required":           "Please select item condition",
	"listingType.required":         "Please select listing type",
	"images.min":                   "Please upload at least one image",
	"images.max":                   "Maximum 5 images allowed",
	"rentalDeposit.required_if":    "Rental deposit is required",
	"rentalDeposit.gte":            "Rental deposit cannot be negative",
	"rentalPeriodDays.required_if": "Rental period must be at least 1 day",
	"rentalPeriodDays.gte":         "Rental period must be at least 1 day",
	"name.trimmed_min":             "Name must be at least 2 characters",
	"phone.vn_phone":               "Please enter a valid Vietnamese phone number",
	"roomNumber.room_number":       "Please enter a valid room number (e.g., 101, 202A)",
}

// Result is the outcome of a form check.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// Err returns nil for a valid result, otherwise a *model.ValidationError.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	fields := make(map[string]string, len(r.Errors))
	for k, v := range r.Errors {
		fields[k] = v
	}
	return &model.ValidationError{Fields: fields}
}

// check runs the struct rules on form and collects one message per field.
func check(form any) Result {
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if err := checker.Struct(form); errors.As(err, &verrs) {
		for _, fe := range verrs {
			msg, ok := messages[fe.Field()+"."+fe.Tag()]
			if !ok {
				msg = "Invalid value"
			}
			errs[fe.Field()] = msg
		}
	} else if err != nil {
		panic(err)
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ItemInput is what the posting and edit forms collect.
type ItemInput struct {
	Title            string   `form:"title" validate:"max=100,trimmed_min=5"`
	Description      string   `form:"description" validate:"max=2000,trimmed_min=20"`
	Price            int64    `form:"price" validate:"gt=0,lte=100000000"`
	Category         string   `form:"category" validate:"required"`
	Condition        string   `form:"condition" validate:"required"`
	ListingType      string   `form:"listingType" validate:"required"`
	Images           []string `form:"images" validate:"min=1,max=5"`
	RentalDeposit    int64    `form:"rentalDeposit" validate:"required_if=ListingType rent,gte=0"`
	RentalPeriodDays int      `form:"rentalPeriodDays" validate:"required_if=ListingType rent,gte=0"`
}

// ItemForm checks a listing form. A field reports its first failing rule,
// so an over-long title reports the length limit.
func ItemForm(in ItemInput) Result {
	return check(in)
}

// ProfileInput is what the profile edit form collects.
type ProfileInput struct {
	Name         string `form:"name" validate:"trimmed_min=2"`
	Phone        string `form:"phone" validate:"omitempty,vn_phone"`
	DormBuilding string `form:"dormBuilding"`
	RoomNumber   string `form:"roomNumber" validate:"omitempty,room_number"`
}

// ProfileForm checks a profile edit form.
func ProfileForm(in ProfileInput) Result {
	return check(in)
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return checker.Var(s, "contact_email") == nil
}

// Phone reports whether s is a Vietnamese mobile number. Whitespace is
// ignored.
func Phone(s string) bool {
	return phoneRe.MatchString(spaceRe.ReplaceAllString(s, ""))
}

// ParsePrice reads a price typed with dot thousand separators ("1.250.000").
// Any non-digit is ignored; an empty result is 0.
func ParsePrice(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FormatPrice renders n with dot thousand separators.
func FormatPrice(n int64) string {
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-(n + 1)) + 1
	}
	digits := strconv.FormatUint(u, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}
