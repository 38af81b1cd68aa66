package score

import (
	"testing"

	"Chordbook/model"

	"github.com/stretchr/testify/assert"
)

func TestDecodeChord(t *testing.T) {
	cases := []struct {
		name  string
		chord model.ChordEvent
		want  string
	}{
		{"major C", model.ChordEvent{Root: 1, Type: 5, Suspensions: []float64{}}, "C"},
		{"minor B", model.ChordEvent{Root: 12, Type: 3, Suspensions: []float64{}}, "Bm"},
		{"minor C", model.ChordEvent{Root: 1, Type: 3}, "Cm"},
		{"minor A", model.ChordEvent{Root: 10, Type: 3}, "Am"},
		{"root six is F", model.ChordEvent{Root: 6, Type: 3, Suspensions: []float64{}}, "Fm"},
		{"sus4", model.ChordEvent{Root: 8, Type: 5, Suspensions: []float64{4}}, "Gsus4"},
		{"only first suspension", model.ChordEvent{Root: 8, Type: 5, Suspensions: []float64{2, 4}}, "Gsus2"},
		{"minor with suspension", model.ChordEvent{Root: 3, Type: 3, Suspensions: []float64{4}}, "Dmsus4"},
		{"unknown quality has no suffix", model.ChordEvent{Root: 2, Type: 7}, "C#"},
		{"zero quality has no suffix", model.ChordEvent{Root: 7}, "F#"},
		{"root zero", model.ChordEvent{Root: 0, Type: 5}, UnknownChord},
		{"root thirteen", model.ChordEvent{Root: 13, Type: 5}, UnknownChord},
		{"negative root", model.ChordEvent{Root: -1, Type: 3}, UnknownChord},
		{"fractional root", model.ChordEvent{Root: 1.5, Type: 5}, UnknownChord},
		{"missing root ignores suspensions", model.ChordEvent{Suspensions: []float64{4}}, UnknownChord},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeChord(tc.chord))
		})
	}
}

func TestDecodeChordCoversEveryRoot(t *testing.T) {
	want := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	for i, name := range want {
		assert.Equal(t, name, DecodeChord(model.ChordEvent{Root: float64(i + 1), Type: QualityMajor}))
	}
}
