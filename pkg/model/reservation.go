package model

type EventCategory string

const (
	CategoryClass      EventCategory = "class"
	CategoryConference EventCategory = "conference"
	CategoryMeeting    EventCategory = "meeting"
	CategoryPractice   EventCategory = "practice"
	CategoryOther      EventCategory = "other"
)

var EventCategories = []EventCategory{
	CategoryClass,
	CategoryConference,
	CategoryMeeting,
	CategoryPractice,
	CategoryOther,
}

type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateCancelled State = "cancelled"
	StateCompleted State = "completed"
)

// Active reports whether the state still holds its slot.
func (s State) Active() bool {
	return s == StatePending || s == StateApproved
}

func (s State) Terminal() bool {
	return s == StateRejected || s == StateCancelled || s == StateCompleted
}

// ReservationRecord is the persisted and published shape of a reservation.
// Timestamps are RFC3339, UpdatedAt is empty until the first transition.
type ReservationRecord struct {
	ID              string          `json:"id" bson:"_id"`
	Requester       RequesterRecord `json:"requester" bson:"requester"`
	Space           SpaceRecord     `json:"space" bson:"space"`
	Slot            SlotRecord      `json:"slot" bson:"slot"`
	EventCategory   string          `json:"event_category" bson:"event_category"`
	Description     string          `json:"description" bson:"description"`
	State           string          `json:"state" bson:"state"`
	CreatedAt       string          `json:"created_at" bson:"created_at"`
	UpdatedAt       string          `json:"updated_at" bson:"updated_at"`
	Approver        *ApproverRecord `json:"approver" bson:"approver"`
	RejectionReason *string         `json:"rejection_reason" bson:"rejection_reason"`
}

type RequesterRecord struct {
	ID           string `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	Role         string `json:"role" bson:"role"`
	AcademicUnit string `json:"academic_unit" bson:"academic_unit"`
}

type SpaceRecord struct {
	Name     string `json:"name" bson:"name"`
	Type     string `json:"type" bson:"type"`
	Capacity int    `json:"capacity" bson:"capacity"`
}

// SlotRecord uses YYYY-MM-DD and HH:MM.
type SlotRecord struct {
	Date  string `json:"date" bson:"date"`
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

type ApproverRecord struct {
	ID              string   `json:"id" bson:"id"`
	Name            string   `json:"name" bson:"name"`
	AcademicUnit    string   `json:"academic_unit" bson:"academic_unit"`
	AuthorizedAreas []string `json:"authorized_areas" bson:"authorized_areas"`
}

// ReservationRequest is the body of a booking request.
type ReservationRequest struct {
	SpaceName     string `json:"space_name" validate:"required,min=1,max=100,no_control"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Start         string `json:"start" validate:"required,datetime=15:04"`
	End           string `json:"end" validate:"required,datetime=15:04"`
	EventCategory string `json:"event_category" validate:"required,max=30"`
	Description   string `json:"description" validate:"omitempty,max=500,no_control"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500,no_control"`
}

// AvailabilityBlock is one 30 minute block of the business day.
type AvailabilityBlock struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Free  bool   `json:"free"`
}

type SpaceAvailability struct {
	Space  Space               `json:"space"`
	Date   string              `json:"date,omitempty"`
	Blocks []AvailabilityBlock `json:"blocks,omitempty"`
}
