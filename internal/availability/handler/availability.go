package handler

import (
	"net/http"
	"strings"

	"rentals/internal/availability/service"
	apperrors "rentals/pkg/errors"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

const (
	listingsPrefix     = "/api/v1/listings/"
	reservationsPrefix = "/api/v1/reservations/"
)

type createRuleRequest struct {
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Kind      model.RuleKind `json:"kind"`
	Note      string         `json:"note"`
}

type dateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type reserveRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	BookingID string `json:"bookingId"`
}

type AvailabilityHandler struct {
	engine service.AvailabilityEngine
	log    *logger.Logger
}

func NewAvailabilityHandler(engine service.AvailabilityEngine, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		engine: engine,
		log:    log,
	}
}

func (h *AvailabilityHandler) GetListingAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := sanitizer.SanitizeID(ps.ByName("id"))

	rng, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "GetListingAvailability", err)
		return
	}

	rules, err := h.engine.GetListingAvailability(r.Context(), listingID, rng)
	if err != nil {
		h.writeError(w, "GetListingAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, model.NewAvailabilityRuleDTOs(rules)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetListingAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) GetAvailableDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := sanitizer.SanitizeID(ps.ByName("id"))

	rng, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "GetAvailableDates", err)
		return
	}

	dates, err := h.engine.GetAvailableDates(r.Context(), listingID, rng)
	if err != nil {
		h.writeError(w, "GetAvailableDates", err)
		return
	}

	resp := model.AvailableDatesDTO{
		ListingID: listingID,
		StartDate: rng.Start.Format(model.DateLayout),
		EndDate:   rng.End.Format(model.DateLayout),
		Dates:     []string{},
	}
	for d := range dates {
		resp.Dates = append(resp.Dates, d.Format(model.DateLayout))
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailableDates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := sanitizer.SanitizeID(ps.ByName("id"))

	var req dateRangeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}
	rng, err := httputil.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	result, err := h.engine.CheckAvailability(r.Context(), listingID, rng)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, model.AvailabilityCheckResult{
		Available:         result.Available,
		ConflictingRanges: model.NewDateRangeDTOs(result.ConflictingRanges),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) CreateRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := sanitizer.SanitizeID(ps.ByName("id"))

	var req createRuleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CreateRule", err)
		return
	}
	rng, err := httputil.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		h.writeError(w, "CreateRule", err)
		return
	}

	rule, err := h.engine.CreateAvailabilityRule(r.Context(), listingID, rng, req.Kind, req.Note)
	if err != nil {
		h.writeError(w, "CreateRule", err)
		return
	}

	if err := httputil.WriteCreated(w, model.NewAvailabilityRuleDTO(rule)); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateRule", "operation", "WriteCreated", "error", err)
	}
}

func (h *AvailabilityHandler) ReserveRange(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := sanitizer.SanitizeID(ps.ByName("id"))

	var req reserveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ReserveRange", err)
		return
	}
	rng, err := httputil.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		h.writeError(w, "ReserveRange", err)
		return
	}

	rule, err := h.engine.ReserveRange(r.Context(), listingID, rng, sanitizer.SanitizeID(req.BookingID))
	if err != nil {
		h.writeError(w, "ReserveRange", err)
		return
	}

	if err := httputil.WriteCreated(w, model.NewAvailabilityRuleDTO(rule)); err != nil {
		h.log.Error("failed to write created response", "handler", "ReserveRange", "operation", "WriteCreated", "error", err)
	}
}

func (h *AvailabilityHandler) ReleaseRange(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := sanitizer.SanitizeID(ps.ByName("bookingId"))
	if bookingID == "" {
		h.writeError(w, "ReleaseRange", apperrors.InvalidInput("Booking ID cannot be empty"))
		return
	}

	if err := h.engine.ReleaseRange(r.Context(), bookingID); err != nil {
		h.writeError(w, "ReleaseRange", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/listings/:id/availability", h.GetListingAvailability)
	router.POST("/api/v1/listings/:id/availability", h.CreateRule)
	router.GET("/api/v1/listings/:id/available-dates", h.GetAvailableDates)
	router.POST("/api/v1/listings/:id/check-availability", h.CheckAvailability)
	router.POST("/api/v1/listings/:id/reservations", h.ReserveRange)
	router.DELETE("/api/v1/reservations/:bookingId", h.ReleaseRange)
}

// IsInternal matches the reserve and release routes, which only the
// bookings flow may call.
func (h *AvailabilityHandler) IsInternal(r *http.Request) bool {
	path := r.URL.Path
	switch r.Method {
	case http.MethodPost:
		return strings.HasPrefix(path, listingsPrefix) && strings.HasSuffix(path, "/reservations")
	case http.MethodDelete:
		return strings.HasPrefix(path, reservationsPrefix)
	}
	return false
}
