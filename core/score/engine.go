// Package score turns a beat-indexed score payload into per-section blocks of
// readable chord symbols and lyric lines.
//
// Everything here is pure: no I/O, no shared state, and input slices are never
// modified, so the functions are safe to call from concurrent requests.
package score

import "Chordbook/model"

// BuildSectionBlocks decodes raw into one block per section, in section order.
// Missing sections or chords yield an empty, non-nil slice.
func BuildSectionBlocks(raw *model.RawScore) []model.SectionBlock {
	if raw == nil || len(raw.Sections) == 0 || len(raw.Chords) == 0 {
		return []model.SectionBlock{}
	}

	chords := SortChords(raw.Chords)
	lyrics := SortLyrics(FirstLyricLine(raw.Lyrics))

	return Partition(chords, lyrics, raw.Sections)
}
