package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/dormswap/internal/model"
)

// FlexString decodes from either a JSON string or a JSON number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// FlexInt decodes from either a JSON number or a numeric JSON string.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = FlexInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("flex int: %q is not a number", raw)
	}
	*n = FlexInt(int64(f))
	return nil
}

// RentalDetails is the rental block of a listing.
type RentalDetails struct {
	RentUnit      string  `json:"rent_unit,omitempty"`
	DepositAmount FlexInt `json:"deposit_amount,omitempty"`
	MinRentPeriod FlexInt `json:"min_rent_period,omitempty"`
	MaxRentPeriod FlexInt `json:"max_rent_period,omitempty"`
}

// ItemRecord is a listing as the backend sends it. Several field spellings
// are accepted because list, detail and profile endpoints disagree.
type ItemRecord struct {
	ID               FlexString     `json:"id,omitempty"`
	ItemID           FlexString     `json:"item_id,omitempty"`
	SellerID         FlexString     `json:"seller_id,omitempty"`
	CategoryID       FlexInt        `json:"category_id,omitempty"`
	Title            string         `json:"title,omitempty"`
	Description      string         `json:"description,omitempty"`
	Price            FlexInt        `json:"price"`
	ItemCondition    string         `json:"item_condition,omitempty"`
	ListingType      string         `json:"listing_type,omitempty"`
	Type             string         `json:"type,omitempty"`
	Status           string         `json:"status,omitempty"`
	Images           []string       `json:"images,omitempty"`
	ImageURLs        []string       `json:"image_urls,omitempty"`
	Image            string         `json:"image,omitempty"`
	MeetupPreference string         `json:"meetup_preference,omitempty"`
	RentalDetails    *RentalDetails `json:"rental_details,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// Identifier returns id, falling back to item_id.
func (r ItemRecord) Identifier() string {
	if r.ID != "" {
		return string(r.ID)
	}
	return string(r.ItemID)
}

// ImageList returns images, falling back to image_urls, then image.
func (r ItemRecord) ImageList() []string {
	switch {
	case len(r.Images) > 0:
		return r.Images
	case len(r.ImageURLs) > 0:
		return r.ImageURLs
	case r.Image != "":
		return []string{r.Image}
	}
	return nil
}

// PostPayload is the JSON metadata part of a create/update post request.
type PostPayload struct {
	SellerID         string         `json:"seller_id"`
	CategoryID       int            `json:"category_id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Price            int64          `json:"price"`
	ItemCondition    string         `json:"item_condition"`
	ListingType      string         `json:"listing_type"`
	Status           string         `json:"status"`
	MeetupPreference string         `json:"meetup_preference,omitempty"`
	RentalDetails    *RentalDetails `json:"rental_details,omitempty"`
}

// ProfileRecord is a user profile as the backend sends it.
type ProfileRecord struct {
	UserID          FlexString `json:"user_id,omitempty"`
	ID              FlexString `json:"id,omitempty"`
	Email           string     `json:"email,omitempty"`
	FullName        string     `json:"full_name,omitempty"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	DormBuilding    string     `json:"dorm_building,omitempty"`
	DormRoom        string     `json:"dorm_room,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	IsAdmin         *bool      `json:"is_admin,omitempty"`
	VerifiedStudent *bool      `json:"is_verified_student,omitempty"`
}

// Identifier returns user_id, falling back to id.
func (p ProfileRecord) Identifier() string {
	if p.UserID != "" {
		return string(p.UserID)
	}
	return string(p.ID)
}

// ToUser maps the record onto a model.User.
func (p ProfileRecord) ToUser() model.User {
	return model.User{
		ID:              p.Identifier(),
		Email:           p.Email,
		Name:            p.FullName,
		AvatarURL:       p.AvatarURL,
		DormBuilding:    p.DormBuilding,
		DormRoom:        p.DormRoom,
		Phone:           p.Phone,
		IsAdmin:         p.IsAdmin != nil && *p.IsAdmin,
		VerifiedStudent: p.VerifiedStudent != nil && *p.VerifiedStudent,
	}
}

// MergeInto overlays the record on u. Empty strings and absent flags keep
// the values u already has.
func (p ProfileRecord) MergeInto(u model.User) model.User {
	u = u.MergeKnown(p.ToUser())
	return model.UserPatch{IsAdmin: p.IsAdmin, VerifiedStudent: p.VerifiedStudent}.Apply(u)
}

// UpdateProfilePayload is the body of PUT /profile.
type UpdateProfilePayload struct {
	UserID       string `json:"user_id"`
	FullName     string `json:"full_name"`
	DormBuilding string `json:"dorm_building"`
	DormRoom     string `json:"dorm_room"`
}

// AuthResponse is returned by POST /auth/google.
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
	ExpiresIn    FlexInt       `json:"expires_in,omitempty"`
	User         ProfileRecord `json:"user"`
}

// decodeList accepts a bare array, {"items": [...]} or {"data": [...]}.
// A {"data": {"items": [...]}} wrapper is unwrapped as well.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = json.RawMessage(bytes.TrimSpace(raw))
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return out, nil
	}
	var env struct {
		Items json.RawMessage `json:"items"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding list envelope: %w", err)
	}
	if len(env.Items) > 0 {
		return decodeList[T](env.Items)
	}
	if len(env.Data) > 0 {
		return decodeList[T](env.Data)
	}
	return nil, nil
}

// decodeOne accepts a bare object or {"data": {...}}.
func decodeOne[T any](raw json.RawMessage) (T, error) {
	var out T
	raw = json.RawMessage(bytes.TrimSpace(raw))
	if len(raw) == 0 || string(raw) == "null" {
		return out, fmt.Errorf("empty response body")
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(raw, &env) == nil {
		data := bytes.TrimSpace(env.Data)
		if len(data) > 0 && data[0] == '{' {
			raw = json.RawMessage(data)
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding object: %w", err)
	}
	return out, nil
}

// decodeAck is decodeOne for write endpoints whose body is optional.
// Acknowledgements such as {"message": "ok"} decode into a zero value.
func decodeAck[T any](raw json.RawMessage) T {
	out, err := decodeOne[T](raw)
	if err != nil {
		var zero T
		return zero
	}
	return out
}
