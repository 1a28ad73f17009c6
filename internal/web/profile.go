package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/profile"
	"github.com/erazemk/dormswap/internal/validate"
)

// ProfileFactory returns a fresh profile store for one request.
type ProfileFactory func(ctx context.Context) *profile.Store

type profileData struct {
	PageData
	Profile  model.User
	Tab      string
	Listings []model.Item
	Active   int
	Pending  int
}

// ProfilePage handles GET /profile. The tab query selects the active
// listings or the sold/rented/removed ones.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())

	ps := s.Profiles(r.Context())
	defer ps.Close()

	data := &profileData{
		PageData: PageData{Title: "My profile", User: user},
		Tab:      "active",
	}
	if r.URL.Query().Get("tab") == "pending" {
		data.Tab = "pending"
	}

	if err := ps.Load(r.Context(), user.ID); err != nil {
		s.Log.Warn("failed to load profile", "user_id", user.ID, "error", err)
		data.Error = errorMessage(err)
	}

	active, other := ps.Partition()
	data.Active, data.Pending = len(active), len(other)
	data.Listings = active
	if data.Tab == "pending" {
		data.Listings = other
	}
	data.Profile = ps.User()

	s.Templates.Render(w, http.StatusOK, "profile.html", data)
}

type profileEditData struct {
	PageData
	Form      validate.ProfileInput
	Fields    map[string]string
	Buildings []string
}

// ProfileEditPage handles GET /profile/edit.
func (s *Server) ProfileEditPage(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())
	s.Templates.Render(w, http.StatusOK, "profile_edit.html", &profileEditData{
		PageData: PageData{Title: "Edit profile", User: user},
		Form: validate.ProfileInput{
			Name:         user.Name,
			Phone:        user.Phone,
			DormBuilding: user.DormBuilding,
			RoomNumber:   user.DormRoom,
		},
		Buildings: DormBuildings,
	})
}

// ProfileEditSubmit handles POST /profile/edit.
func (s *Server) ProfileEditSubmit(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())
	in := validate.ProfileInput{
		Name:         r.FormValue("name"),
		Phone:        r.FormValue("phone"),
		DormBuilding: r.FormValue("dorm_building"),
		RoomNumber:   r.FormValue("room_number"),
	}

	ps := s.Profiles(r.Context())
	defer ps.Close()

	if _, err := ps.UpdateProfile(r.Context(), in); err != nil {
		data := &profileEditData{
			PageData:  PageData{Title: "Edit profile", User: user},
			Form:      in,
			Buildings: DormBuildings,
		}
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			data.Fields = verr.Fields
		} else {
			s.Log.Error("failed to update profile", "user_id", user.ID, "error", err)
			data.Error = errorMessage(err)
		}
		s.Templates.Render(w, http.StatusUnprocessableEntity, "profile_edit.html", data)
		return
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// ProfileListingDeleteSubmit handles POST /profile/items/{id}/delete.
func (s *Server) ProfileListingDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())
	id := r.PathValue("id")

	ps := s.Profiles(r.Context())
	defer ps.Close()

	if err := ps.DeleteListing(r.Context(), user.ID, id); err != nil {
		http.Error(w, errorMessage(err), statusFor(err))
		return
	}

	tab := r.FormValue("tab")
	if tab != "pending" {
		tab = "active"
	}
	http.Redirect(w, r, "/profile?tab="+tab, http.StatusSeeOther)
}
