package handler

import (
	"context"
	"net/http"

	"rentals/internal/bookings/service"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type createBookingRequest struct {
	ListingID string `json:"listingId"`
	RenterID  string `json:"renterId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	rng, err := httputil.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking := &model.BookingReservation{
		ListingID: req.ListingID,
		RenterID:  req.RenterID,
		StartDate: rng.Start,
		EndDate:   rng.End,
	}
	if err := h.service.Create(r.Context(), booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, model.NewBookingReservationDTO(booking)); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), sanitizer.SanitizeID(ps.ByName("id")))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, model.NewBookingReservationDTO(booking)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListByListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByListing", err)
		return
	}

	bookings, total, err := h.service.ListByListing(r.Context(), sanitizer.SanitizeID(ps.ByName("id")), limit, offset)
	if err != nil {
		h.writeError(w, "ListByListing", err)
		return
	}

	if err := httputil.WritePaginated(w, model.NewBookingReservationDTOs(bookings), total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByListing", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, "Confirm", ps, h.service.Confirm)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, "Cancel", ps, h.service.Cancel)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, "Complete", ps, h.service.Complete)
}

func (h *BookingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	ps httprouter.Params,
	apply func(ctx context.Context, id string) (*model.BookingReservation, error),
) {
	booking, err := apply(r.Context(), sanitizer.SanitizeID(ps.ByName("id")))
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, model.NewBookingReservationDTO(booking)); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/complete", h.Complete)
	router.GET("/api/v1/listings/:id/bookings", h.ListByListing)
}
