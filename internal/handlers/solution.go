package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/requestdata"
	"github.com/gtead/marketplace-backend/internal/types"
)

type SolutionHandler struct {
	log       *logger.Logger
	solutions repos.SolutionRepo
}

func NewSolutionHandler(log *logger.Logger, solutions repos.SolutionRepo) *SolutionHandler {
	return &SolutionHandler{
		log:       log.With("handler", "SolutionHandler"),
		solutions: solutions,
	}
}

// List supports the structured catalog filters; a non-empty search
// param switches to free-text matching instead.
func (h *SolutionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		results, err := h.solutions.Search(ctx, search)
		if err != nil {
			h.log.Error("Solution search failed", "error", err)
			respondServiceError(c, err)
			return
		}
		RespondOK(c, results)
		return
	}

	filter := repos.SolutionFilter{
		Status:         c.Query("status"),
		CapabilityArea: c.Query("capabilityArea"),
	}
	if v := c.Query("vendorId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_filter", errors.New("Invalid vendorId filter"))
			return
		}
		filter.VendorID = &id
	}
	if v := c.Query("trl"); v != "" {
		trl, err := strconv.Atoi(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_filter", errors.New("Invalid trl filter"))
			return
		}
		filter.TRL = &trl
	}
	if v := c.Query("natoCompatible"); v != "" {
		b := v == "true"
		filter.NATOCompatible = &b
	}
	if v := c.Query("securityCleared"); v != "" {
		b := v == "true"
		filter.SecurityCleared = &b
	}

	results, err := h.solutions.List(ctx, filter)
	if err != nil {
		h.log.Error("Solution list failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, results)
}

func (h *SolutionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("Invalid solution id"))
		return
	}
	solution, err := h.solutions.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, solution)
}

type createSolutionBody struct {
	Title           string              `json:"title" binding:"required"`
	Description     string              `json:"description" binding:"required"`
	TRL             int                 `json:"trl"`
	NATOCompatible  bool                `json:"natoCompatible"`
	SecurityCleared bool                `json:"securityCleared"`
	CapabilityAreas []string            `json:"capabilityAreas"`
	PitchVideoURL   string              `json:"pitchVideoUrl"`
	DocumentURLs    []string            `json:"documentUrls"`
	Procurements    []types.Procurement `json:"procurements"`
}

// Create forces the vendor id to the session user; a vendor cannot file
// a solution on another vendor's behalf.
func (h *SolutionHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body createSolutionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Title and description are required"))
		return
	}
	if body.TRL < 0 || body.TRL > 9 {
		RespondError(c, http.StatusBadRequest, "invalid_trl", errors.New("TRL must be between 0 and 9"))
		return
	}
	solution := &types.Solution{
		VendorID:        rd.User.ID,
		Title:           body.Title,
		Description:     body.Description,
		TRL:             body.TRL,
		NATOCompatible:  body.NATOCompatible,
		SecurityCleared: body.SecurityCleared,
		CapabilityAreas: datatypes.NewJSONSlice(body.CapabilityAreas),
		PitchVideoURL:   body.PitchVideoURL,
		DocumentURLs:    datatypes.NewJSONSlice(body.DocumentURLs),
		Procurements:    datatypes.NewJSONSlice(body.Procurements),
	}
	created, err := h.solutions.Create(c.Request.Context(), solution)
	if err != nil {
		h.log.Error("Solution create failed", "vendor_id", rd.User.ID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondCreated(c, created)
}

type patchSolutionBody struct {
	Title           *string              `json:"title"`
	Description     *string              `json:"description"`
	TRL             *int                 `json:"trl"`
	NATOCompatible  *bool                `json:"natoCompatible"`
	SecurityCleared *bool                `json:"securityCleared"`
	CapabilityAreas *[]string            `json:"capabilityAreas"`
	PitchVideoURL   *string              `json:"pitchVideoUrl"`
	DocumentURLs    *[]string            `json:"documentUrls"`
	Procurements    *[]types.Procurement `json:"procurements"`
	Status          *string              `json:"status"`
}

// Patch: the owning vendor edits content; government and admin users
// may only move the status.
func (h *SolutionHandler) Patch(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("Invalid solution id"))
		return
	}
	var body patchSolutionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Invalid request body"))
		return
	}

	solution, err := h.solutions.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	owner := rd.User.Role == types.RoleVendor && solution.VendorID == rd.User.ID
	statusOnly := types.GovernmentRole(rd.User.Role) || rd.User.Role == types.RoleAdmin
	switch {
	case owner:
	case statusOnly:
		if body.Status == nil || hasContentEdits(&body) {
			RespondError(c, http.StatusForbidden, "forbidden", errors.New("Only the solution status may be changed"))
			return
		}
	default:
		RespondError(c, http.StatusForbidden, "forbidden", errors.New("Forbidden"))
		return
	}

	if body.Title != nil {
		solution.Title = *body.Title
	}
	if body.Description != nil {
		solution.Description = *body.Description
	}
	if body.TRL != nil {
		if *body.TRL < 0 || *body.TRL > 9 {
			RespondError(c, http.StatusBadRequest, "invalid_trl", errors.New("TRL must be between 0 and 9"))
			return
		}
		solution.TRL = *body.TRL
	}
	if body.NATOCompatible != nil {
		solution.NATOCompatible = *body.NATOCompatible
	}
	if body.SecurityCleared != nil {
		solution.SecurityCleared = *body.SecurityCleared
	}
	if body.CapabilityAreas != nil {
		solution.CapabilityAreas = datatypes.NewJSONSlice(*body.CapabilityAreas)
	}
	if body.PitchVideoURL != nil {
		solution.PitchVideoURL = *body.PitchVideoURL
	}
	if body.DocumentURLs != nil {
		solution.DocumentURLs = datatypes.NewJSONSlice(*body.DocumentURLs)
	}
	if body.Procurements != nil {
		solution.Procurements = datatypes.NewJSONSlice(*body.Procurements)
	}
	if body.Status != nil {
		if !types.ValidSolutionStatus(*body.Status) {
			RespondError(c, http.StatusBadRequest, "invalid_status", errors.New("Invalid solution status"))
			return
		}
		solution.Status = *body.Status
	}

	updated, err := h.solutions.Update(c.Request.Context(), solution)
	if err != nil {
		h.log.Error("Solution update failed", "solution_id", id, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, updated)
}

func hasContentEdits(body *patchSolutionBody) bool {
	return body.Title != nil || body.Description != nil || body.TRL != nil ||
		body.NATOCompatible != nil || body.SecurityCleared != nil ||
		body.CapabilityAreas != nil || body.PitchVideoURL != nil ||
		body.DocumentURLs != nil || body.Procurements != nil
}
