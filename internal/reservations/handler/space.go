package handler

import (
	"net/http"

	"reservatec/internal/reservations/service"
	httputil "reservatec/pkg/http"
	"reservatec/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// RemovalResponse reports a catalog removal and the active reservations
// cancelled along with it.
type RemovalResponse struct {
	Removed               string `json:"removed"`
	CancelledReservations int    `json:"cancelled_reservations"`
}

type SpaceHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewSpaceHandler(service service.ReservationService, log *logger.Logger) *SpaceHandler {
	return &SpaceHandler{
		service: service,
		log:     log,
	}
}

func (h *SpaceHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SpaceHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// List returns every catalog space. With ?date= each entry carries the
// availability blocks for that day.
func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	spaces, err := h.service.ListSpaces(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	h.writeSuccess(w, "List", spaces)
}

func (h *SpaceHandler) Reservations(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	records, err := h.service.ListBySpace(r.Context(), ps.ByName("name"))
	if err != nil {
		h.writeError(w, "Reservations", err)
		return
	}
	h.writeSuccess(w, "Reservations", records)
}

func (h *SpaceHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	availability, err := h.service.Availability(r.Context(), ps.ByName("name"), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	h.writeSuccess(w, "Availability", availability)
}

func (h *SpaceHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID, err := httputil.RequesterID(r)
	if err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	name := ps.ByName("name")
	cancelled, err := h.service.RemoveSpace(r.Context(), name, callerID)
	if err != nil {
		h.writeError(w, "Remove", err)
		return
	}
	h.writeSuccess(w, "Remove", RemovalResponse{Removed: name, CancelledReservations: cancelled})
}

func (h *SpaceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/spaces", h.List)
	router.GET("/api/v1/spaces/:name/reservations", h.Reservations)
	router.GET("/api/v1/spaces/:name/availability", h.Availability)
	router.DELETE("/api/v1/spaces/:name", h.Remove)
}
