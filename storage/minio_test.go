package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchiveObjectName(t *testing.T) {
	at := time.Date(2024, 3, 9, 17, 4, 5, 0, time.FixedZone("CST", 8*3600))
	name := ArchiveObjectName("4uLU6hMCjMI75M1A2tKUQC", at, "0f8fad5b")
	assert.Equal(t, "scores/4uLU6hMCjMI75M1A2tKUQC/20240309T090405Z-0f8fad5b.json", name)
}

func TestSummarizeAndSort(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	objects := []ObjectInfo{
		{Key: "a", Size: 10, LastModified: older},
		{Key: "b", Size: 32, LastModified: newer},
	}

	sortByLastModified(objects)
	assert.Equal(t, "b", objects[0].Key)

	stats := summarize(objects)
	assert.Equal(t, int64(2), stats.TotalObjects)
	assert.Equal(t, int64(42), stats.TotalSize)
	assert.Equal(t, newer, stats.LastModified)

	assert.Equal(t, &BucketStats{}, summarize(nil))
}
