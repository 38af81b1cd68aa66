package catalog

import (
	"context"

	"Chordbook/model"
)

// TrackStore 曲目持久化
type TrackStore interface {
	GetBySpotifyID(ctx context.Context, spotifyID string) (*model.Track, error)
	Create(ctx context.Context, track *model.Track) error
	Update(ctx context.Context, track *model.Track) error
	UpdateAnalysis(ctx context.Context, spotifyID string, update model.TrackAnalysisUpdate) error
	// ListByKey 不包含 excludeID 本身
	ListByKey(ctx context.Context, key, scale, excludeID string, limit int) ([]*model.Track, error)
}

// ScoreStore 乐谱持久化，每首歌只保留最新一份
type ScoreStore interface {
	GetLatestByTrackID(ctx context.Context, trackID string) (*model.Score, error)
	SaveLatest(ctx context.Context, trackID string, data []byte) (*model.Score, error)
}

// ScoreCache 最新乐谱的读缓存，未命中返回 (nil, nil)
type ScoreCache interface {
	Get(ctx context.Context, trackID string) ([]byte, error)
	Set(ctx context.Context, trackID string, data []byte) error
	Delete(ctx context.Context, trackID string) error
}

// ScoreArchive 上传原文归档
type ScoreArchive interface {
	ArchiveScore(ctx context.Context, trackID string, data []byte) (string, error)
}

// Notifier 向订阅者推送段落更新
type Notifier interface {
	NotifyScoreUpdated(trackID string, sections []model.SectionBlock)
}
