package handler

import (
	"net/http"

	"reservatec/internal/reservations/service"
	httputil "reservatec/pkg/http"
	"reservatec/pkg/logger"
	"reservatec/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Request(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID, err := httputil.RequesterID(r)
	if err != nil {
		h.writeError(w, "Request", err)
		return
	}

	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Request", err)
		return
	}

	rec, err := h.service.Request(r.Context(), requesterID, &req)
	if err != nil {
		h.writeError(w, "Request", err)
		return
	}

	if err := httputil.WriteCreated(w, rec); err != nil {
		h.log.Error("failed to write created response", "handler", "Request", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rec, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	h.writeSuccess(w, "GetByID", rec)
}

func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID, err := httputil.RequesterID(r)
	if err != nil {
		h.writeError(w, "Approve", err)
		return
	}

	rec, err := h.service.Approve(r.Context(), ps.ByName("id"), callerID)
	if err != nil {
		h.writeError(w, "Approve", err)
		return
	}
	h.writeSuccess(w, "Approve", rec)
}

func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID, err := httputil.RequesterID(r)
	if err != nil {
		h.writeError(w, "Reject", err)
		return
	}

	var req model.RejectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reject", err)
		return
	}

	rec, err := h.service.Reject(r.Context(), ps.ByName("id"), callerID, &req)
	if err != nil {
		h.writeError(w, "Reject", err)
		return
	}
	h.writeSuccess(w, "Reject", rec)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID, err := httputil.RequesterID(r)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	rec, err := h.service.Cancel(r.Context(), ps.ByName("id"), callerID)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	h.writeSuccess(w, "Cancel", rec)
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rec, err := h.service.Complete(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}
	h.writeSuccess(w, "Complete", rec)
}

func (h *ReservationHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID, err := httputil.RequesterID(r)
	if err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	if err := h.service.Remove(r.Context(), ps.ByName("id"), callerID); err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	httputil.WriteNoContent(w)
}

// ListForRequester serves both the active view (?active=true) and the full
// history of a requester.
func (h *ReservationHandler) ListForRequester(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	activeOnly, err := httputil.BoolQuery(r, "active")
	if err != nil {
		h.writeError(w, "ListForRequester", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListForRequester", err)
		return
	}

	records, total, err := h.service.ListForRequester(r.Context(), ps.ByName("id"), activeOnly, limit, offset)
	if err != nil {
		h.writeError(w, "ListForRequester", err)
		return
	}

	if err := httputil.WritePaginated(w, records, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListForRequester", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) RemoveRequester(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID, err := httputil.RequesterID(r)
	if err != nil {
		h.writeError(w, "RemoveRequester", err)
		return
	}

	cancelled, err := h.service.RemoveRequester(r.Context(), ps.ByName("id"), callerID)
	if err != nil {
		h.writeError(w, "RemoveRequester", err)
		return
	}
	h.writeSuccess(w, "RemoveRequester", RemovalResponse{Removed: ps.ByName("id"), CancelledReservations: cancelled})
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Request)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.DELETE("/api/v1/reservations/id/:id", h.Remove)
	router.POST("/api/v1/reservations/id/:id/approve", h.Approve)
	router.POST("/api/v1/reservations/id/:id/reject", h.Reject)
	router.POST("/api/v1/reservations/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/reservations/id/:id/complete", h.Complete)

	router.GET("/api/v1/requesters/:id/reservations", h.ListForRequester)
	router.DELETE("/api/v1/requesters/:id", h.RemoveRequester)
}
