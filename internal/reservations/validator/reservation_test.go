package validator

import (
	"errors"
	"strings"
	"testing"

	"reservatec/pkg/logger"
	"reservatec/pkg/model"
)

func validRequest() *model.ReservationRequest {
	return &model.ReservationRequest{
		SpaceName:     "Lab1",
		Date:          "2025-03-10",
		Start:         "14:00",
		End:           "15:00",
		EventCategory: "class",
		Description:   "Redes I",
	}
}

func TestValidate_ReservationRequest(t *testing.T) {
	v := NewReservationValidator(logger.NewNop())

	tests := []struct {
		name      string
		mutate    func(r *model.ReservationRequest)
		wantField string
	}{
		{name: "valid", mutate: func(r *model.ReservationRequest) {}},
		{name: "missing space", mutate: func(r *model.ReservationRequest) { r.SpaceName = "" }, wantField: "space_name"},
		{name: "bad date", mutate: func(r *model.ReservationRequest) { r.Date = "10/03/2025" }, wantField: "date"},
		{name: "bad start", mutate: func(r *model.ReservationRequest) { r.Start = "2pm" }, wantField: "start"},
		{name: "missing end", mutate: func(r *model.ReservationRequest) { r.End = "" }, wantField: "end"},
		{name: "missing category", mutate: func(r *model.ReservationRequest) { r.EventCategory = "" }, wantField: "event_category"},
		{name: "description too long", mutate: func(r *model.ReservationRequest) { r.Description = strings.Repeat("x", 501) }, wantField: "description"},
		{name: "control characters", mutate: func(r *model.ReservationRequest) { r.Description = "bad\x00text" }, wantField: "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.Validate(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidate_EndBeforeStartIsNotAShapeError(t *testing.T) {
	v := NewReservationValidator(logger.NewNop())

	req := validRequest()
	req.Start, req.End = "15:00", "14:00"
	if err := v.Validate(req); err != nil {
		t.Errorf("range ordering is checked by the time slot, got %v", err)
	}
}

func TestValidateReject(t *testing.T) {
	v := NewReservationValidator(logger.NewNop())

	if err := v.ValidateReject(&model.RejectRequest{Reason: "maintenance"}); err != nil {
		t.Errorf("ValidateReject() error = %v", err)
	}
	if err := v.ValidateReject(&model.RejectRequest{}); err == nil {
		t.Error("expected error for empty reason")
	}
}

func TestValidateSpace(t *testing.T) {
	v := NewReservationValidator(logger.NewNop())

	tests := []struct {
		name    string
		space   model.Space
		wantErr bool
	}{
		{"valid", model.Space{Name: "Lab1", Type: model.SpaceLaboratory, Capacity: 30}, false},
		{"unknown type", model.Space{Name: "Lab1", Type: "garage", Capacity: 30}, true},
		{"zero capacity", model.Space{Name: "Lab1", Type: model.SpaceLaboratory}, true},
		{"missing name", model.Space{Type: model.SpaceAuditorium, Capacity: 300}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSpace(&tt.space)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpace() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequester(t *testing.T) {
	v := NewReservationValidator(logger.NewNop())

	tests := []struct {
		name      string
		requester model.Requester
		wantField string
	}{
		{
			name:      "student with student profile",
			requester: model.Requester{ID: "s1", Name: "Luis", Role: model.RoleStudent, Student: &model.StudentProfile{Career: "ISC", Semester: 4}},
		},
		{
			name: "responsible with spaces",
			requester: model.Requester{
				ID: "r1", Name: "Rosa", Role: model.RoleAreaResponsible,
				AreaResponsible: &model.AreaResponsibleProfile{AuthorizedSpaces: []string{"Lab1"}},
			},
		},
		{
			name:      "student with faculty profile",
			requester: model.Requester{ID: "s1", Name: "Luis", Role: model.RoleStudent, Faculty: &model.FacultyProfile{Department: "Math"}},
			wantField: "role",
		},
		{
			name:      "responsible without spaces",
			requester: model.Requester{ID: "r1", Name: "Rosa", Role: model.RoleAreaResponsible},
			wantField: "area_responsible",
		},
		{
			name:      "unknown role",
			requester: model.Requester{ID: "x", Name: "X", Role: "admin"},
			wantField: "role",
		},
		{
			name:      "bad email",
			requester: model.Requester{ID: "s1", Name: "Luis", Role: model.RoleStudent, Email: "nope"},
			wantField: "email",
		},
		{
			name:      "semester out of range",
			requester: model.Requester{ID: "s1", Name: "Luis", Role: model.RoleStudent, Student: &model.StudentProfile{Semester: 30}},
			wantField: "student.semester",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequester(&tt.requester)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateRequester() error = %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tt.wantField, verrs)
			}
		})
	}
}
