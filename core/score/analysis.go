package score

import "Chordbook/model"

// ChordVocabulary lists the distinct chord symbols in first-seen order,
// skipping chords that cannot be resolved.
func ChordVocabulary(chords []model.ChordEvent) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, c := range chords {
		name := DecodeChord(c)
		if name == UnknownChord || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// MostFrequentChord returns the most used chord symbol and its count.
// Ties go to the symbol seen first.
func MostFrequentChord(chords []model.ChordEvent) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, c := range chords {
		name := DecodeChord(c)
		if name == UnknownChord {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	best, bestCount := "", 0
	for _, name := range order {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best, bestCount
}

// PrimaryKey 取第一个调性
func PrimaryKey(keys []model.KeySignature) (tonic, scale string) {
	if len(keys) == 0 {
		return "", ""
	}
	return keys[0].Tonic, keys[0].Scale
}

// SectionNames 非空段落名，保持输入顺序
func SectionNames(sections []model.Section) []string {
	names := []string{}
	for _, s := range sections {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// Analyze summarizes a score for the track listing.
func Analyze(raw *model.RawScore) model.ScoreAnalysis {
	if raw == nil {
		raw = &model.RawScore{}
	}
	tonic, scale := PrimaryKey(raw.Keys)
	top, topCount := MostFrequentChord(raw.Chords)
	return model.ScoreAnalysis{
		Tonic:         tonic,
		Scale:         scale,
		Chords:        ChordVocabulary(raw.Chords),
		TopChord:      top,
		TopChordCount: topCount,
		Sections:      SectionNames(raw.Sections),
		ChordCount:    len(raw.Chords),
		SectionCount:  len(raw.Sections),
	}
}
