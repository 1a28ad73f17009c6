package model

import "time"

// User is a marketplace account as seen by the client.
type User struct {
	ID              string    `json:"user_id"`
	Email           string    `json:"email"`
	Name            string    `json:"full_name"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	DormBuilding    string    `json:"dorm_building,omitempty"`
	DormRoom        string    `json:"dorm_room,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	IsAdmin         bool      `json:"is_admin"`
	VerifiedStudent bool      `json:"is_verified_student"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// UserPatch is a partial update of a User. Nil fields are left unchanged.
type UserPatch struct {
	Email           *string
	Name            *string
	AvatarURL       *string
	DormBuilding    *string
	DormRoom        *string
	Phone           *string
	IsAdmin         *bool
	VerifiedStudent *bool
}

// Apply returns a copy of u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.DormBuilding != nil {
		u.DormBuilding = *p.DormBuilding
	}
	if p.DormRoom != nil {
		u.DormRoom = *p.DormRoom
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.VerifiedStudent != nil {
		u.VerifiedStudent = *p.VerifiedStudent
	}
	return u
}

// MergeKnown overlays the non-empty string fields of fresh onto u. Fields
// the server left empty keep their previously known value. Flags are not
// touched; a bool cannot tell an omitted flag from false.
func (u User) MergeKnown(fresh User) User {
	keep := func(old, next string) string {
		if next == "" {
			return old
		}
		return next
	}
	u.ID = keep(u.ID, fresh.ID)
	u.Email = keep(u.Email, fresh.Email)
	u.Name = keep(u.Name, fresh.Name)
	u.AvatarURL = keep(u.AvatarURL, fresh.AvatarURL)
	u.DormBuilding = keep(u.DormBuilding, fresh.DormBuilding)
	u.DormRoom = keep(u.DormRoom, fresh.DormRoom)
	u.Phone = keep(u.Phone, fresh.Phone)
	return u
}

// Session is the locally persisted proof of authentication.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         User      `json:"user"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
