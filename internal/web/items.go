package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/imaging"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/validate"
)

// maxUploadBytes bounds a posting form with the maximum number of photos.
const maxUploadBytes = validate.ImagesMax*imaging.MaxInputBytes + 1<<20

type homeData struct {
	PageData
	Items      []model.Item
	Filters    model.ItemFilters
	Query      url.Values
	Categories []model.Category
	Conditions []model.Condition
}

// HomePage handles GET /.
func (s *Server) HomePage(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())
	f := catalog.FiltersFromQuery(r.URL.Query())

	data := &homeData{
		PageData:   PageData{Title: "Browse", User: user},
		Filters:    f,
		Query:      r.URL.Query(),
		Categories: model.Categories,
		Conditions: model.Conditions,
	}

	items, err := s.Catalog.List(r.Context(), f)
	if err != nil {
		s.Log.Error("failed to list items", "error", err)
		data.Error = errorMessage(err)
	}
	data.Items = items

	s.Templates.Render(w, http.StatusOK, "home.html", data)
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())
	item, ok := s.Catalog.GetByID(r.Context(), r.PathValue("id"))
	if !ok {
		s.notFound(w, user)
		return
	}

	s.Templates.Render(w, http.StatusOK, "item_detail.html", &struct {
		PageData
		Item    model.Item
		IsOwner bool
	}{
		PageData: PageData{Title: item.Title, User: user},
		Item:     item,
		IsOwner:  user != nil && item.SellerID == user.ID,
	})
}

// itemFormData backs both the posting and the edit form.
type itemFormData struct {
	PageData
	Action      string
	Item        model.Item
	Building    string
	Deposit     string
	Fields      map[string]string
	Categories  []model.Category
	Conditions  []model.Condition
	RentUnits   []model.RentUnit
	Buildings   []string
	Editing     bool
	Transitions []model.ItemStatus
}

func (s *Server) renderItemForm(w http.ResponseWriter, status int, d *itemFormData) {
	d.Categories = model.Categories
	d.Conditions = model.Conditions
	d.RentUnits = []model.RentUnit{model.RentDay, model.RentWeek, model.RentMonth}
	d.Buildings = DormBuildings
	if d.Editing {
		for _, st := range []model.ItemStatus{model.ItemStatusAvailable, model.ItemStatusSold, model.ItemStatusRented, model.ItemStatusRemoved} {
			if d.Item.Status.CanTransition(st) {
				d.Transitions = append(d.Transitions, st)
			}
		}
	}
	s.Templates.Render(w, status, "item_form.html", d)
}

// PostPage handles GET /post.
func (s *Server) PostPage(w http.ResponseWriter, r *http.Request) {
	s.renderItemForm(w, http.StatusOK, &itemFormData{
		PageData: PageData{Title: "Post an item", User: GetWebUser(r.Context())},
		Action:   "/post",
		Item: model.Item{
			Condition:   model.DefaultCondition,
			ListingType: model.ListingSell,
		},
	})
}

// PostSubmit handles POST /post.
func (s *Server) PostSubmit(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "upload too large", http.StatusBadRequest)
		return
	}

	draft := catalog.Draft{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Price:         validate.ParsePrice(r.FormValue("price")),
		Category:      model.Category(r.FormValue("category")),
		Condition:     model.Condition(r.FormValue("condition")),
		ListingType:   model.ListingType(r.FormValue("listing_type")),
		RentalDeposit: validate.ParsePrice(r.FormValue("rental_deposit")),
		RentUnit:      model.RentUnit(r.FormValue("rent_unit")),
		DormBuilding:  r.FormValue("building"),
	}
	form := &itemFormData{
		PageData: PageData{Title: "Post an item", User: user},
		Action:   "/post",
		Item: model.Item{
			Title:       draft.Title,
			Description: draft.Description,
			Price:       draft.Price,
			Category:    draft.Category,
			Condition:   draft.Condition,
			ListingType: draft.ListingType,
			RentUnit:    draft.RentUnit,
		},
		Building: draft.DormBuilding,
		Deposit:  r.FormValue("rental_deposit"),
	}

	photos, err := preparePhotos(r)
	if err != nil {
		form.Fields = map[string]string{"images": err.Error()}
		s.renderItemForm(w, http.StatusUnprocessableEntity, form)
		return
	}

	item, err := s.Catalog.Create(r.Context(), draft, photos)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			form.Fields = verr.Fields
		} else {
			s.Log.Error("failed to create listing", "error", err)
			form.Error = errorMessage(err)
		}
		s.renderItemForm(w, http.StatusUnprocessableEntity, form)
		return
	}

	if item.ID == "" {
		http.Redirect(w, r, "/profile?tab=active", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/items/"+url.PathEscape(item.ID), http.StatusSeeOther)
}

// EditPage handles GET /items/{id}/edit.
func (s *Server) EditPage(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())
	item, ok := s.Catalog.GetByID(r.Context(), r.PathValue("id"))
	if !ok {
		s.notFound(w, user)
		return
	}
	if user == nil || item.SellerID != user.ID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	s.Catalog.Remember(item)

	s.renderItemForm(w, http.StatusOK, &itemFormData{
		PageData: PageData{Title: "Edit " + item.Title, User: user},
		Action:   "/items/" + url.PathEscape(item.ID) + "/edit",
		Item:     item,
		Deposit:  depositText(item.RentalDeposit),
		Editing:  true,
	})
}

// EditSubmit handles POST /items/{id}/edit.
func (s *Server) EditSubmit(w http.ResponseWriter, r *http.Request) {
	user := GetWebUser(r.Context())
	id := r.PathValue("id")

	current, ok := s.Catalog.GetByID(r.Context(), id)
	if !ok {
		s.notFound(w, user)
		return
	}
	if user == nil || current.SellerID != user.ID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	s.Catalog.Remember(current)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "upload too large", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	price := validate.ParsePrice(r.FormValue("price"))
	category := model.Category(r.FormValue("category"))
	condition := model.Condition(r.FormValue("condition"))
	listing := model.ListingType(r.FormValue("listing_type"))
	status := model.ItemStatus(r.FormValue("status"))
	deposit := validate.ParsePrice(r.FormValue("rental_deposit"))
	unit := model.RentUnit(r.FormValue("rent_unit"))

	patch := catalog.Patch{
		Title:       &title,
		Description: &description,
		Price:       &price,
		Category:    &category,
		Condition:   &condition,
		ListingType: &listing,
	}
	if status != "" {
		patch.Status = &status
	}
	if listing == model.ListingRent {
		patch.RentalDeposit = &deposit
		patch.RentUnit = &unit
	}

	form := &itemFormData{
		PageData: PageData{Title: "Edit " + current.Title, User: user},
		Action:   "/items/" + url.PathEscape(id) + "/edit",
		Item:     patch.Apply(current),
		Deposit:  r.FormValue("rental_deposit"),
		Editing:  true,
	}

	photos, err := preparePhotos(r)
	if err != nil {
		form.Fields = map[string]string{"images": err.Error()}
		s.renderItemForm(w, http.StatusUnprocessableEntity, form)
		return
	}

	images := append([]string(nil), current.Images...)
	for _, p := range photos {
		images = append(images, p.Name)
	}
	res := validate.ItemForm(validate.ItemInput{
		Title:            title,
		Description:      description,
		Price:            price,
		Category:         string(category),
		Condition:        string(condition),
		ListingType:      string(listing),
		Images:           images,
		RentalDeposit:    deposit,
		RentalPeriodDays: unit.Days(),
	})
	if !res.Valid {
		form.Fields = res.Errors
		s.renderItemForm(w, http.StatusUnprocessableEntity, form)
		return
	}

	if _, err := s.Catalog.Update(r.Context(), id, patch, photos); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			form.Fields = verr.Fields
		} else {
			s.Log.Error("failed to update listing", "item_id", id, "error", err)
			form.Error = errorMessage(err)
		}
		s.renderItemForm(w, http.StatusUnprocessableEntity, form)
		return
	}

	http.Redirect(w, r, "/items/"+url.PathEscape(id), http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.Catalog.Delete(r.Context(), id); err != nil {
		s.Log.Warn("failed to delete listing", "item_id", id, "error", err)
		http.Error(w, errorMessage(err), statusFor(err))
		return
	}
	http.Redirect(w, r, "/profile?tab=active", http.StatusSeeOther)
}

// preparePhotos reads the "images" files of a multipart form.
func preparePhotos(r *http.Request) ([]catalog.Photo, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) > validate.ImagesMax {
		return nil, fmt.Errorf("at most %d images allowed", validate.ImagesMax)
	}

	photos := make([]catalog.Photo, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
		}
		up, err := imaging.Prepare(fh.Filename, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		photos = append(photos, up)
	}
	return photos, nil
}

func depositText(p *int64) string {
	if p == nil {
		return ""
	}
	return validate.FormatPrice(*p)
}

func (s *Server) notFound(w http.ResponseWriter, user *model.User) {
	s.Templates.Render(w, http.StatusNotFound, "not_found.html", &PageData{Title: "Not found", User: user})
}

// errorMessage is the text shown to the user for err.
func errorMessage(err error) string {
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, model.ErrNoSession):
		return "Please sign in again."
	case errors.Is(err, model.ErrNotFound):
		return "Listing not found."
	}
	return "Something went wrong. Please try again."
}

func statusFor(err error) int {
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 600:
		return apiErr.Status
	case errors.Is(err, model.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
