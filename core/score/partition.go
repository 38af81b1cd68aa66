package score

import (
	"math"

	"Chordbook/model"
)

// Partition buckets beat-sorted chords and lyrics into one block per section.
//
// Section i owns the half-open interval [sections[i].Beat, sections[i+1].Beat);
// the last section extends to +Inf. Events before the first section are dropped.
// Sections are used in the order given.
func Partition(chords []model.ChordEvent, lyrics []model.LyricEvent, sections []model.Section) []model.SectionBlock {
	blocks := []model.SectionBlock{}
	if len(sections) == 0 || len(chords) == 0 || len(lyrics) == 0 {
		return blocks
	}

	for i, section := range sections {
		start := section.Beat
		end := math.Inf(1)
		if i+1 < len(sections) {
			end = sections[i+1].Beat
		}

		block := model.SectionBlock{
			Name:   section.Name,
			Chords: []string{},
			Lyrics: []string{},
		}
		for _, c := range chords {
			if c.Beat >= start && c.Beat < end {
				block.Chords = append(block.Chords, DecodeChord(c))
			}
		}
		for _, l := range lyrics {
			if l.Beat >= start && l.Beat < end {
				block.Lyrics = append(block.Lyrics, l.Text)
			}
		}
		blocks = append(blocks, block)
	}

	return blocks
}
