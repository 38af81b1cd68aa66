package repository

import (
	"context"
	"errors"

	"Chordbook/model"

	"gorm.io/gorm"
)

// TrackRepository 曲目数据访问接口
type TrackRepository interface {
	GetBySpotifyID(ctx context.Context, spotifyID string) (*model.Track, error)
	Create(ctx context.Context, track *model.Track) error
	Update(ctx context.Context, track *model.Track) error
	UpdateAnalysis(ctx context.Context, spotifyID string, update model.TrackAnalysisUpdate) error
	ListByKey(ctx context.Context, key, scale, excludeID string, limit int) ([]*model.Track, error)
}

// gormTrackRepository GORM 实现
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository 创建 GORM 曲目仓库
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// GetBySpotifyID 未找到时返回 (nil, nil)
func (r *gormTrackRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).
		Where("spotify_id = ?", spotifyID).
		First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// Create 创建曲目，Spotify ID 冲突时返回 ErrDuplicateTrack
func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	err := r.db.WithContext(ctx).Create(track).Error
	if isDuplicateKey(err) {
		return ErrDuplicateTrack
	}
	return err
}

// Update 按 Spotify ID 更新曲目元数据，不覆盖乐谱分析字段
func (r *gormTrackRepository) Update(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).Model(&model.Track{}).
		Where("spotify_id = ?", track.SpotifyID).
		Updates(map[string]interface{}{
			"name":         track.Name,
			"artist_name":  track.ArtistName,
			"artist_id":    track.ArtistID,
			"album_name":   track.AlbumName,
			"album_id":     track.AlbumID,
			"image_url":    track.ImageURL,
			"release_date": track.ReleaseDate,
			"duration_ms":  track.DurationMs,
			"track_number": track.TrackNumber,
			"popularity":   track.Popularity,
		}).Error
}

// UpdateAnalysis 回写调性、和弦表和段落名
func (r *gormTrackRepository) UpdateAnalysis(ctx context.Context, spotifyID string, update model.TrackAnalysisUpdate) error {
	return r.db.WithContext(ctx).Model(&model.Track{}).
		Where("spotify_id = ?", spotifyID).
		Updates(map[string]interface{}{
			"key":      update.Key,
			"scale":    update.Scale,
			"chords":   update.Chords,
			"sections": update.Sections,
		}).Error
}

// ListByKey 同调性同调式的曲目，按热度降序
func (r *gormTrackRepository) ListByKey(ctx context.Context, key, scale, excludeID string, limit int) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"key": key, "scale": scale}).
		Where("spotify_id <> ?", excludeID).
		Order("popularity DESC").
		Order("id ASC").
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}
