package model

type Role string

const (
	RoleStudent         Role = "student"
	RoleFaculty         Role = "faculty"
	RoleStaff           Role = "staff"
	RoleAreaResponsible Role = "area_responsible"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleStaff, RoleAreaResponsible:
		return true
	}
	return false
}

type StudentProfile struct {
	Career   string `json:"career,omitempty" validate:"omitempty,max=100"`
	Semester int    `json:"semester,omitempty" validate:"omitempty,min=1,max=20"`
}

type FacultyProfile struct {
	Department string   `json:"department,omitempty" validate:"omitempty,max=100"`
	Subjects   []string `json:"subjects,omitempty" validate:"omitempty,dive,required,max=100"`
}

type StaffProfile struct {
	Position   string `json:"position,omitempty" validate:"omitempty,max=100"`
	Department string `json:"department,omitempty" validate:"omitempty,max=100"`
}

type AreaResponsibleProfile struct {
	AuthorizedSpaces   []string `json:"authorized_spaces" validate:"omitempty,dive,required,max=100"`
	AuthorizationLevel int      `json:"authorization_level,omitempty" validate:"omitempty,min=1,max=10"`
}

// Requester is a person who books or approves spaces. Only the profile
// matching Role may be set.
type Requester struct {
	ID           string `json:"id" validate:"required,max=100"`
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Role         Role   `json:"role" validate:"required,oneof=student faculty staff area_responsible"`
	AcademicUnit string `json:"academic_unit,omitempty" validate:"omitempty,max=100"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`

	Student         *StudentProfile         `json:"student,omitempty" validate:"omitempty"`
	Faculty         *FacultyProfile         `json:"faculty,omitempty" validate:"omitempty"`
	Staff           *StaffProfile           `json:"staff,omitempty" validate:"omitempty"`
	AreaResponsible *AreaResponsibleProfile `json:"area_responsible,omitempty" validate:"omitempty"`
}

// ProfileMatchesRole reports whether no profile other than the one for Role is set.
func (r Requester) ProfileMatchesRole() bool {
	set := map[Role]bool{
		RoleStudent:         r.Student != nil,
		RoleFaculty:         r.Faculty != nil,
		RoleStaff:           r.Staff != nil,
		RoleAreaResponsible: r.AreaResponsible != nil,
	}
	for role, present := range set {
		if present && role != r.Role {
			return false
		}
	}
	return true
}

// AuthorizedSpaces is empty for every role except area_responsible.
func (r Requester) AuthorizedSpaces() []string {
	if r.Role != RoleAreaResponsible || r.AreaResponsible == nil {
		return nil
	}
	return r.AreaResponsible.AuthorizedSpaces
}
