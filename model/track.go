package model

import "time"

// Track represents a catalog track keyed by its Spotify ID.
// Chords and Sections hold JSON-encoded string lists derived from the latest score.
type Track struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SpotifyID   string    `gorm:"size:255;not null;uniqueIndex" json:"spotifyId"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	ArtistName  string    `gorm:"size:255" json:"artistName"`
	ArtistID    string    `gorm:"size:255" json:"artistId"`
	AlbumName   string    `gorm:"size:255" json:"albumName"`
	AlbumID     string    `gorm:"size:255" json:"albumId"`
	ImageURL    string    `gorm:"size:512" json:"imageUrl"`
	ReleaseDate string    `gorm:"size:50" json:"releaseDate"`
	DurationMs  int       `json:"durationMs"`
	TrackNumber int       `json:"trackNumber"`
	Popularity  int       `json:"popularity"`
	Chords      string    `gorm:"type:text" json:"chords"`   // e.g. ["C","Am"]
	Key         string    `gorm:"size:50" json:"key"`        // tonic, e.g. C, D#
	Scale       string    `gorm:"size:50" json:"scale"`      // major / minor
	Sections    string    `gorm:"type:text" json:"sections"` // e.g. ["Intro","Verse"]
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Track) TableName() string {
	return "tracks"
}

// TrackAnalysisUpdate 上传乐谱后回写到 tracks 表的字段
type TrackAnalysisUpdate struct {
	Key      string
	Scale    string
	Chords   string
	Sections string
}
