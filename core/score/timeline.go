package score

import (
	"math"
	"sort"

	"Chordbook/model"
)

// SortChords returns a beat-ascending copy of chords. Equal beats keep their
// input order and the caller's slice is left untouched.
func SortChords(chords []model.ChordEvent) []model.ChordEvent {
	sorted := make([]model.ChordEvent, len(chords))
	copy(sorted, chords)
	for i := range sorted {
		sorted[i].Beat = normalizeBeat(sorted[i].Beat)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Beat < sorted[j].Beat
	})
	return sorted
}

// SortLyrics is SortChords for lyric events.
func SortLyrics(lyrics []model.LyricEvent) []model.LyricEvent {
	sorted := make([]model.LyricEvent, len(lyrics))
	copy(sorted, lyrics)
	for i := range sorted {
		sorted[i].Beat = normalizeBeat(sorted[i].Beat)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Beat < sorted[j].Beat
	})
	return sorted
}

// FirstLyricLine 只取第一行歌词，其余行（如其他语言版本）不参与处理
func FirstLyricLine(lines [][]model.LyricEvent) []model.LyricEvent {
	if len(lines) == 0 {
		return nil
	}
	return lines[0]
}

// NaN 与缺省值一样按 0 处理
func normalizeBeat(beat float64) float64 {
	if math.IsNaN(beat) {
		return 0
	}
	return beat
}
