package score

import (
	"errors"
	"fmt"

	"Chordbook/model"
)

var (
	// ErrSectionsOutOfOrder 段落起始拍不是非递减顺序
	ErrSectionsOutOfOrder = errors.New("sections are not in chronological order")
	// ErrInvalidScore 乐谱 JSON 无法解析
	ErrInvalidScore = errors.New("invalid score payload")
)

// ValidateSections checks that every section starts at or after its predecessor.
// Partition relies on this ordering, so ingest paths call it before storing a score.
func ValidateSections(sections []model.Section) error {
	for i := 1; i < len(sections); i++ {
		if sections[i].Beat < sections[i-1].Beat {
			return fmt.Errorf("%w: section %d %q starts at beat %v, before %q at beat %v",
				ErrSectionsOutOfOrder, i, sections[i].Name, sections[i].Beat,
				sections[i-1].Name, sections[i-1].Beat)
		}
	}
	return nil
}
