package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeSpaceNames(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "case preserved",
			input: []string{"Lab1", "AULA-101"},
			want:  []string{"Lab1", "AULA-101"},
		},
		{
			name:  "trim and collapse whitespace",
			input: []string{" Sala  de Juntas ", "Lab1 "},
			want:  []string{"Sala de Juntas", "Lab1"},
		},
		{
			name:  "remove duplicates",
			input: []string{"Lab1", " Lab1", "Lab1  "},
			want:  []string{"Lab1"},
		},
		{
			name:  "different case is a different space",
			input: []string{"Lab1", "lab1"},
			want:  []string{"Lab1", "lab1"},
		},
		{
			name:  "filter empty strings",
			input: []string{"Lab1", "", "  ", "Lab2"},
			want:  []string{"Lab1", "Lab2"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSpaceNames(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeSpaceNames(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeSlice(t *testing.T) {
	got := SanitizeSlice([]string{"Meeting Room", "meeting_room", " ", "Laboratory"}, SanitizeKey)
	want := []string{"meeting_room", "laboratory"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice() = %v, want %v", got, want)
	}
}
