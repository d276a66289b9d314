package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"reservatec/pkg/logger"
	"reservatec/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors as a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterStructValidation(requesterProfileMatchesRole, model.Requester{})

	if err := v.RegisterValidation("no_control", validateNoControlChars); err != nil {
		log.Fatal("Failed to register 'no_control' validator",
			"error", err,
		)
	}

	log.Debug("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func requesterProfileMatchesRole(sl validator.StructLevel) {
	requester := sl.Current().Interface().(model.Requester)
	if !requester.ProfileMatchesRole() {
		sl.ReportError(requester.Role, "role", "Role", "profile_matches_role", "")
	}
	if requester.Role == model.RoleAreaResponsible && len(requester.AuthorizedSpaces()) == 0 {
		sl.ReportError(requester.AreaResponsible, "area_responsible", "AreaResponsible", "authorized_spaces", "")
	}
}

func validateNoControlChars(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), func(r rune) bool {
		return r < 0x20 && r != '\n' && r != '\t'
	})
}

func (v *ReservationValidator) Validate(req *model.ReservationRequest) error {
	return v.check(req)
}

func (v *ReservationValidator) ValidateReject(req *model.RejectRequest) error {
	return v.check(req)
}

func (v *ReservationValidator) ValidateSpace(space *model.Space) error {
	return v.check(space)
}

func (v *ReservationValidator) ValidateRequester(requester *model.Requester) error {
	return v.check(requester)
}

func (v *ReservationValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	validationErrors := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Namespace()[strings.Index(err.Namespace(), ".")+1:],
			Message: message(err),
		})
	}
	return validationErrors
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	case "datetime":
		return fmt.Sprintf("must match the layout %s", err.Param())
	case "email":
		return "must be a valid email address"
	case "no_control":
		return "must not contain control characters"
	case "profile_matches_role":
		return "only the profile matching the role may be set"
	case "authorized_spaces":
		return "area_responsible must list at least one authorized space"
	default:
		return fmt.Sprintf("failed on the '%s' rule", err.Tag())
	}
}
