package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aific/finances-backend/internal/api/dto"
	"github.com/aific/finances-backend/internal/application/service"
	"github.com/aific/finances-backend/internal/domain/rules"
)

// CategoriesHandler handles category and detector HTTP requests.
type CategoriesHandler struct {
	*Base
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(svc *service.DocumentService) *CategoriesHandler {
	return &CategoriesHandler{Base: NewBase(svc)}
}

func toDetectorResponse(d *rules.Detector) dto.DetectorResponse {
	return dto.DetectorResponse{
		ID:              d.ID(),
		CategoryID:      d.CategoryID(),
		Vendor:          d.Vendor(),
		Description:     d.Description(),
		Pattern:         d.Pattern(),
		CentsMin:        d.CentsMin(),
		CentsMax:        d.CentsMax(),
		MatchingPattern: d.MatchingPattern(),
		MirrorID:        d.MirrorID(),
		Derived:         d.IsDerived(),
	}
}

func toCategoryResponse(c *rules.Category) dto.CategoryResponse {
	detectors := c.Detectors()
	resp := dto.CategoryResponse{
		ID:        c.ID(),
		Name:      c.Name(),
		Type:      string(c.Type()),
		Color:     c.Color().String(),
		Detectors: make([]dto.DetectorResponse, 0, len(detectors)),
	}
	for _, d := range detectors {
		resp.Detectors = append(resp.Detectors, toDetectorResponse(d))
	}
	return resp
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := h.svc.Categories()
	response := dto.CategoryListResponse{
		Categories: make([]dto.CategoryResponse, 0, len(categories)),
	}
	for _, c := range categories {
		response.Categories = append(response.Categories, toCategoryResponse(c))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/categories/{id}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.svc.Category(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("category"))
		return
	}
	h.WriteJSON(w, http.StatusOK, toCategoryResponse(c))
}

func parseCategoryMeta(req dto.CreateCategoryRequest) (rules.CategoryType, rules.Color, error) {
	ctype, err := rules.ParseCategoryType(req.Type)
	if err != nil {
		return "", rules.Color{}, err
	}
	color := rules.Color{}
	if req.Color != "" {
		color, err = rules.ParseColor(req.Color)
		if err != nil {
			return "", rules.Color{}, err
		}
	}
	return ctype, color, nil
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("name is required"))
		return
	}

	ctype, color, err := parseCategoryMeta(req)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	c, err := h.svc.CreateCategory(req.ID, req.Name, ctype, color)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			h.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
			return
		}
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusCreated, toCategoryResponse(c))
}

// Update handles PUT /api/categories/{id}. The category type cannot change.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, ok := h.svc.Category(id)
	if !ok {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("category"))
		return
	}

	var req dto.UpdateCategoryRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	color := existing.Color()
	if req.Color != "" {
		var err error
		color, err = rules.ParseColor(req.Color)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
			return
		}
	}

	c, err := h.svc.UpdateCategory(id, req.Name, existing.Type(), color)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}
	h.WriteJSON(w, http.StatusOK, toCategoryResponse(c))
}

// CreateDetector handles POST /api/detectors.
func (h *CategoriesHandler) CreateDetector(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDetectorRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if req.Pattern == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("pattern is required"))
		return
	}

	d, err := h.svc.CreateDetector(rules.DetectorSpec{
		ID:              req.ID,
		CategoryID:      req.CategoryID,
		Vendor:          req.Vendor,
		Description:     req.Description,
		Pattern:         req.Pattern,
		CentsMin:        req.CentsMin,
		CentsMax:        req.CentsMax,
		MatchingPattern: req.MatchingPattern,
	})
	switch {
	case errors.Is(err, rules.ErrUnknownCategory):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("category"))
	case err != nil && strings.Contains(err.Error(), "already exists"):
		h.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
	case err != nil:
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		h.WriteJSON(w, http.StatusCreated, toDetectorResponse(d))
	}
}

// GetDetector handles GET /api/detectors/{id}.
func (h *CategoriesHandler) GetDetector(w http.ResponseWriter, r *http.Request) {
	d, ok := h.svc.Detector(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("detector"))
		return
	}
	h.WriteJSON(w, http.StatusOK, toDetectorResponse(d))
}

// UpdateDetector handles PATCH /api/detectors/{id}. Edits propagate to the
// detector's mirror and re-validate affected transactions.
func (h *CategoriesHandler) UpdateDetector(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDetectorRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	d, err := h.svc.EditDetector(chi.URLParam(r, "id"), service.DetectorEdit{
		Vendor:          req.Vendor,
		Description:     req.Description,
		Pattern:         req.Pattern,
		CentsMin:        req.CentsMin,
		CentsMax:        req.CentsMax,
		MatchingPattern: req.MatchingPattern,
	})
	switch {
	case errors.Is(err, rules.ErrUnknownDetector):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("detector"))
	case errors.Is(err, rules.ErrSyntheticDetector), errors.Is(err, rules.ErrMirrorStateMismatch):
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case err != nil:
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		h.WriteJSON(w, http.StatusOK, toDetectorResponse(d))
	}
}
