package score

import (
	"math"
	"strconv"

	"Chordbook/model"
)

// UnknownChord is returned for chords whose root cannot be resolved.
const UnknownChord = "Unknown"

// 和弦性质编码，目前只区分大三和小三
const (
	QualityMinor = 3
	QualityMajor = 5
)

var rootNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// DecodeChord renders a chord event as a symbol such as "C", "Am" or "Gsus4".
//
// Quality codes other than major and minor render without a suffix, and only the
// first suspension is shown.
func DecodeChord(c model.ChordEvent) string {
	name, ok := rootName(c.Root)
	if !ok {
		return UnknownChord
	}

	suffix := ""
	if c.Type == QualityMinor {
		suffix = "m"
	}

	suspension := ""
	if len(c.Suspensions) > 0 {
		suspension = "sus" + formatDegree(c.Suspensions[0])
	}

	return name + suffix + suspension
}

// rootName 根音编号 1-12 映射到音名，非整数或越界视为无法解析
func rootName(root float64) (string, bool) {
	if math.IsNaN(root) || root != math.Trunc(root) || root < 1 || root > 12 {
		return "", false
	}
	return rootNames[int(root)-1], true
}

func formatDegree(degree float64) string {
	return strconv.FormatFloat(degree, 'f', -1, 64)
}
