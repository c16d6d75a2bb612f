package http

import (
	"net/http"

	applog "razhodi/internal/log"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListApartments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	apts, err := s.apartments.List(ctx)
	if err != nil {
		s.writeError(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(apts).Write(w)
}

func (s *Server) handleCreateApartment(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, applog.OpCreate)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	apt, err := s.apartments.Create(ctx, sanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, err, applog.OpCreate)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Apartment created",
		applog.FieldApartmentID, apt.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(apt).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	cats, err := s.apartments.Categories(ctx, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, applog.OpCreate)
		return
	}
	apartmentID := r.PathValue("id")
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	cat, err := s.apartments.AddCategory(ctx, apartmentID, sanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, err, applog.OpCreate)
		return
	}
	// a new column appears in every year of the apartment
	s.invalidateApartment(apartmentID)
	NewJSONResponse().Status(http.StatusCreated).Body(cat).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		s.writeError(w, r, err, applog.OpDelete)
		return
	}
	if err := s.apartments.DeleteCategory(ctx, categoryID); err != nil {
		s.writeError(w, r, err, applog.OpDelete)
		return
	}
	s.invalidateApartment(cat.ApartmentID)
	applog.FromContext(ctx).InfoContext(ctx, "Category deleted",
		applog.FieldApartmentID, cat.ApartmentID,
		applog.FieldCategoryID, categoryID)
	NoContent().Write(w)
}
