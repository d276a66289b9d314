package service

import (
	"errors"
	"fmt"
	"net/http"

	reserrors "reservatec/internal/reservations/errors"
	"reservatec/internal/reservations/validator"
	apperrors "reservatec/pkg/errors"
)

// toAppError maps core errors onto API errors. Unknown errors become internal.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		verrs      validator.ValidationErrors
		conflict   *reserrors.ConflictError
		transition *reserrors.TransitionError
		notFound   *reserrors.NotFoundError
		persist    *reserrors.PersistenceError
	)

	switch {
	case errors.As(err, &verrs):
		return apperrors.Validation("Request validation failed", verrs.Details())
	case errors.As(err, &conflict):
		return apperrors.SlotConflict(fmt.Sprintf("Space %s is already booked for that time", conflict.SpaceName)).
			WithDetails(map[string]any{
				"space":          conflict.SpaceName,
				"conflicting_id": conflict.ConflictingID,
			})
	case errors.As(err, &transition):
		return apperrors.InvalidTransition(fmt.Sprintf("Cannot %s a %s reservation", transition.Op, transition.From)).
			WithDetails(map[string]any{
				"id":        transition.ID,
				"state":     transition.From,
				"operation": transition.Op,
			})
	case errors.As(err, &notFound):
		return apperrors.NotFoundWithID(notFound.Kind, notFound.Key)
	case errors.As(err, &persist):
		return apperrors.PersistenceFailure("Reservation change could not be stored", err).
			WithDetails(map[string]any{"id": persist.ID, "operation": persist.Op})
	case errors.Is(err, reserrors.ErrInvalidRange):
		return apperrors.InvalidRange(err.Error())
	case errors.Is(err, reserrors.ErrInvalidEventCategory):
		return apperrors.New(apperrors.CodeInvalidEventCategory, err.Error(), http.StatusBadRequest)
	case errors.Is(err, reserrors.ErrUnauthorized):
		return apperrors.Unauthorized(err.Error())
	default:
		return apperrors.Internal("An unexpected error occurred", err)
	}
}
