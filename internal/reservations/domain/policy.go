package domain

import (
	"slices"

	reserrors "reservatec/internal/reservations/errors"
	"reservatec/pkg/model"
	"reservatec/pkg/sanitizer"
)

var allowedCategories = map[model.Role][]model.EventCategory{
	model.RoleStudent: {
		model.CategoryPractice,
		model.CategoryMeeting,
	},
	model.RoleFaculty: {
		model.CategoryClass,
		model.CategoryPractice,
		model.CategoryMeeting,
		model.CategoryConference,
	},
	model.RoleStaff: {
		model.CategoryMeeting,
		model.CategoryConference,
	},
	model.RoleAreaResponsible: model.EventCategories,
}

// ParseEventCategory accepts any casing and surrounding whitespace.
func ParseEventCategory(s string) (model.EventCategory, error) {
	category := model.EventCategory(sanitizer.NormalizeCategory(s))
	if !slices.Contains(model.EventCategories, category) {
		return "", reserrors.InvalidEventCategory(s)
	}
	return category, nil
}

func CanRequest(role model.Role, category model.EventCategory) bool {
	return slices.Contains(allowedCategories[role], category)
}

// CanApprove requires an area_responsible who lists the space by exact name.
// When the space belongs to an academic unit it must be the responsible's unit.
func CanApprove(responsible model.Requester, space model.Space) bool {
	if responsible.Role != model.RoleAreaResponsible {
		return false
	}
	if !slices.Contains(responsible.AuthorizedSpaces(), space.Name) {
		return false
	}
	if space.AcademicUnit != "" && space.AcademicUnit != responsible.AcademicUnit {
		return false
	}
	return true
}

// CanCancel allows the owner or any area_responsible.
func CanCancel(caller, owner model.Requester) bool {
	return caller.ID == owner.ID || caller.Role == model.RoleAreaResponsible
}
