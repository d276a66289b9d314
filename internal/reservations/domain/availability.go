package domain

import (
	"time"

	"reservatec/pkg/model"
)

const (
	BusinessDayStart TimeOfDay = 7 * 60
	BusinessDayEnd   TimeOfDay = 22 * 60
	BlockMinutes               = 30
)

type Block struct {
	Start TimeOfDay
	End   TimeOfDay
	Free  bool
}

func (b Block) Record() model.AvailabilityBlock {
	return model.AvailabilityBlock{
		Start: b.Start.String(),
		End:   b.End.String(),
		Free:  b.Free,
	}
}

// Availability splits the business day of date into 30 minute blocks. A block
// is occupied when it overlaps any of the given slots on that date.
func Availability(date time.Time, occupied []TimeSlot) []Block {
	blocks := make([]Block, 0, int(BusinessDayEnd-BusinessDayStart)/BlockMinutes)
	for start := BusinessDayStart; start < BusinessDayEnd; start += BlockMinutes {
		end := start + BlockMinutes
		block := TimeSlot{date: dateOnly(date), start: start, end: end}

		free := true
		for _, slot := range occupied {
			if slot.Overlaps(block) {
				free = false
				break
			}
		}
		blocks = append(blocks, Block{Start: start, End: end, Free: free})
	}
	return blocks
}

func BlockRecords(blocks []Block) []model.AvailabilityBlock {
	out := make([]model.AvailabilityBlock, len(blocks))
	for i, b := range blocks {
		out[i] = b.Record()
	}
	return out
}
