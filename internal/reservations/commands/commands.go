package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "reservatec/pkg/errors"
	"reservatec/pkg/kafka"
	"reservatec/pkg/logger"
	"reservatec/pkg/model"
)

type CommandType string

const (
	CommandRequest  CommandType = "RequestReservation"
	CommandApprove  CommandType = "ApproveReservation"
	CommandReject   CommandType = "RejectReservation"
	CommandCancel   CommandType = "CancelReservation"
	CommandComplete CommandType = "CompleteReservation"
)

// CommandEnvelope is the value of a message on the commands topic. When
// RequesterID is empty the requester-id header is used.
type CommandEnvelope struct {
	Type        CommandType     `json:"type"`
	RequesterID string          `json:"requester_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// TransitionPayload addresses an existing reservation. Reason is only read
// by RejectReservation.
type TransitionPayload struct {
	ReservationID string `json:"reservation_id"`
	Reason        string `json:"reason,omitempty"`
}

// Service is the subset of the reservation service driven by commands.
type Service interface {
	Request(ctx context.Context, requesterID string, req *model.ReservationRequest) (*model.ReservationRecord, error)
	Approve(ctx context.Context, id, responsibleID string) (*model.ReservationRecord, error)
	Reject(ctx context.Context, id, responsibleID string, req *model.RejectRequest) (*model.ReservationRecord, error)
	Cancel(ctx context.Context, id, callerID string) (*model.ReservationRecord, error)
	Complete(ctx context.Context, id string) (*model.ReservationRecord, error)
}

type Handler struct {
	svc     Service
	timeout time.Duration
	log     *logger.Logger
}

func NewHandler(svc Service, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		svc:     svc,
		timeout: timeout,
		log:     log.Component("commands"),
	}
}

// Handle is a kafka.MessageHandler. Malformed commands are permanent errors,
// rejected commands are business errors and unavailable dependencies are
// transient.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var env CommandEnvelope
	if err := msg.DecodeValue(&env); err != nil {
		return kafka.NewPermanentError("invalid command envelope", err)
	}
	if env.RequesterID == "" {
		env.RequesterID = msg.GetRequesterID()
	}

	correlationID := msg.GetCorrelationID()
	if correlationID == "" {
		correlationID = msg.GetEventID()
	}
	ctx = kafka.ContextWithCorrelationID(ctx, correlationID)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	rec, err := h.dispatch(ctx, env)
	if err != nil {
		return classify(env, err)
	}

	h.log.Info("Command applied",
		"type", env.Type,
		"requester_id", env.RequesterID,
		"reservation_id", rec.ID,
		"state", rec.State,
	)
	return nil
}

func (h *Handler) dispatch(ctx context.Context, env CommandEnvelope) (*model.ReservationRecord, error) {
	if env.Type == CommandRequest {
		var req model.ReservationRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return nil, kafka.NewPermanentError("invalid request payload", err)
		}
		return h.svc.Request(ctx, env.RequesterID, &req)
	}

	var p TransitionPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return nil, kafka.NewPermanentError("invalid transition payload", err)
	}
	if p.ReservationID == "" {
		return nil, kafka.NewPermanentError("reservation_id is required", nil)
	}

	switch env.Type {
	case CommandApprove:
		return h.svc.Approve(ctx, p.ReservationID, env.RequesterID)
	case CommandReject:
		return h.svc.Reject(ctx, p.ReservationID, env.RequesterID, &model.RejectRequest{Reason: p.Reason})
	case CommandCancel:
		return h.svc.Cancel(ctx, p.ReservationID, env.RequesterID)
	case CommandComplete:
		return h.svc.Complete(ctx, p.ReservationID)
	default:
		return nil, kafka.NewPermanentError(fmt.Sprintf("unknown command type %q", env.Type), nil)
	}
}

func classify(env CommandEnvelope, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch {
	case appErr.HTTPStatus == http.StatusGatewayTimeout || appErr.Code == apperrors.CodeUnavailable:
		return kafka.NewTransientError(string(env.Type), err)
	case appErr.HTTPStatus >= 400 && appErr.HTTPStatus < 500:
		return kafka.NewBusinessError(string(env.Type), err).WithDetail("code", appErr.Code)
	default:
		return kafka.NewPermanentError(string(env.Type), err)
	}
}
