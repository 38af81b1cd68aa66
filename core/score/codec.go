package score

import (
	"bytes"
	"fmt"

	"Chordbook/model"

	json "github.com/goccy/go-json"
)

// ParseRawScore decodes a score payload. Empty input is an empty score.
// Decode failures are wrapped in ErrInvalidScore.
func ParseRawScore(data []byte) (*model.RawScore, error) {
	raw := &model.RawScore{}
	if len(bytes.TrimSpace(data)) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScore, err)
	}
	return raw, nil
}
