package domain

import (
	"testing"
	"time"
)

func TestAvailability_AlwaysThirtyContiguousBlocks(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, occupied := range [][]TimeSlot{
		nil,
		{mustSlot(t, "2025-03-10", "00:00", "23:59")},
		{mustSlot(t, "2025-03-10", "10:00", "11:00"), mustSlot(t, "2025-03-10", "21:45", "23:00")},
	} {
		blocks := Availability(date, occupied)
		if len(blocks) != 30 {
			t.Fatalf("len(blocks) = %d, want 30", len(blocks))
		}
		if blocks[0].Start.String() != "07:00" || blocks[29].End.String() != "22:00" {
			t.Errorf("day spans %s-%s, want 07:00-22:00", blocks[0].Start, blocks[29].End)
		}
		for i := 1; i < len(blocks); i++ {
			if blocks[i].Start != blocks[i-1].End {
				t.Fatalf("gap between block %d and %d", i-1, i)
			}
		}
	}
}

func TestAvailability_MarksOverlappingBlocks(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	occupied := []TimeSlot{
		mustSlot(t, "2025-03-10", "10:00", "11:00"),
		mustSlot(t, "2025-03-10", "13:15", "13:45"),
		mustSlot(t, "2025-03-11", "07:00", "22:00"),
	}

	busy := map[string]bool{}
	for _, b := range Availability(date, occupied) {
		if !b.Free {
			busy[b.Start.String()] = true
		}
	}

	want := []string{"10:00", "10:30", "13:00", "13:30"}
	if len(busy) != len(want) {
		t.Errorf("busy blocks = %v, want %v", busy, want)
	}
	for _, start := range want {
		if !busy[start] {
			t.Errorf("block %s should be occupied", start)
		}
	}
}
