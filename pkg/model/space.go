package model

type SpaceType string

const (
	SpaceClassroom   SpaceType = "classroom"
	SpaceLaboratory  SpaceType = "laboratory"
	SpaceMeetingRoom SpaceType = "meeting_room"
	SpaceAuditorium  SpaceType = "auditorium"
)

func (t SpaceType) Valid() bool {
	switch t {
	case SpaceClassroom, SpaceLaboratory, SpaceMeetingRoom, SpaceAuditorium:
		return true
	}
	return false
}

// Space is a reservable room. Keyed by Name, matched exactly.
type Space struct {
	Name          string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Type          SpaceType `json:"type" bson:"type" validate:"required,oneof=classroom laboratory meeting_room auditorium"`
	Capacity      int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=5000"`
	AcademicUnit  string    `json:"academic_unit,omitempty" bson:"academic_unit,omitempty" validate:"omitempty,max=100"`
	ResponsibleID string    `json:"responsible_id,omitempty" bson:"responsible_id,omitempty" validate:"omitempty,max=100"`
}
