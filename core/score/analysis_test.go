package score

import (
	"errors"
	"testing"

	"Chordbook/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChordVocabulary(t *testing.T) {
	chords := []model.ChordEvent{
		{Root: 1, Type: 5},
		{Root: 10, Type: 3},
		{Root: 0},
		{Root: 1, Type: 5},
		{Root: 8, Type: 5, Suspensions: []float64{4}},
	}
	assert.Equal(t, []string{"C", "Am", "Gsus4"}, ChordVocabulary(chords))
	assert.Equal(t, []string{}, ChordVocabulary(nil))
}

func TestMostFrequentChord(t *testing.T) {
	chords := []model.ChordEvent{
		{Root: 10, Type: 3},
		{Root: 1, Type: 5},
		{Root: 1, Type: 5},
		{Root: 10, Type: 3},
		{Root: 13},
		{Root: 13},
		{Root: 13},
	}
	name, count := MostFrequentChord(chords)
	assert.Equal(t, "Am", name, "ties go to the chord seen first")
	assert.Equal(t, 2, count)

	name, count = MostFrequentChord(nil)
	assert.Equal(t, "", name)
	assert.Equal(t, 0, count)
}

func TestAnalyze(t *testing.T) {
	raw := &model.RawScore{
		Sections: []model.Section{{Name: "Intro"}, {Name: ""}, {Name: "Verse", Beat: 4}},
		Chords:   []model.ChordEvent{{Root: 1, Type: 5}, {Root: 5, Type: 3}, {Root: 1, Type: 5}},
		Keys:     []model.KeySignature{{Tonic: "C", Scale: "major"}, {Tonic: "A", Scale: "minor"}},
	}

	got := Analyze(raw)
	assert.Equal(t, "C", got.Tonic)
	assert.Equal(t, "major", got.Scale)
	assert.Equal(t, []string{"C", "Em"}, got.Chords)
	assert.Equal(t, "C", got.TopChord)
	assert.Equal(t, 2, got.TopChordCount)
	assert.Equal(t, []string{"Intro", "Verse"}, got.Sections)
	assert.Equal(t, 3, got.ChordCount)
	assert.Equal(t, 3, got.SectionCount)

	empty := Analyze(nil)
	assert.Equal(t, "", empty.Tonic)
	assert.Empty(t, empty.Chords)
}

func TestValidateSections(t *testing.T) {
	assert.NoError(t, ValidateSections(nil))
	assert.NoError(t, ValidateSections([]model.Section{{Beat: 0}, {Beat: 0}, {Beat: 8}}))

	err := ValidateSections([]model.Section{{Name: "Verse", Beat: 8}, {Name: "Intro", Beat: 0}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSectionsOutOfOrder))
}

func TestParseRawScore(t *testing.T) {
	payload := []byte(`{
		"sections": [{"name": "Intro", "beat": 0}, {"name": "Verse", "beat": 4}],
		"chords": [{"beat": 0, "root": 1, "type": 5, "suspensions": []}, {"root": 6, "type": 3, "suspensions": null}],
		"lyrics": [[{"beat": 0, "text": "Hello"}]],
		"keys": [{"beat": 0, "tonic": "C", "scale": "major"}],
		"notes": [{"sd": "1", "beat": 0}],
		"endBeat": 64
	}`)

	raw, err := ParseRawScore(payload)
	require.NoError(t, err)
	require.Len(t, raw.Sections, 2)
	require.Len(t, raw.Chords, 2)
	assert.Equal(t, float64(0), raw.Chords[1].Beat, "missing beat defaults to 0")
	assert.Equal(t, "Hello", raw.Lyrics[0][0].Text)
	assert.Equal(t, "C", raw.Keys[0].Tonic)

	empty, err := ParseRawScore([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, BuildSectionBlocks(empty))

	_, err = ParseRawScore([]byte(`{"sections": "nope"`))
	assert.True(t, errors.Is(err, ErrInvalidScore))
}
