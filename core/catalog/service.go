// Package catalog 负责曲目和乐谱的读写，把存储、缓存、归档和实时推送串在解码引擎周围。
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Chordbook/core/score"
	"Chordbook/logger"
	"Chordbook/model"
	"Chordbook/repository"

	json "github.com/goccy/go-json"
)

// Service 曲目与乐谱服务
type Service struct {
	tracks   TrackStore
	scores   ScoreStore
	cache    ScoreCache
	archive  ScoreArchive
	notifier Notifier
}

// Option 可选依赖
type Option func(*Service)

func WithCache(c ScoreCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithArchive(a ScoreArchive) Option {
	return func(s *Service) { s.archive = a }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService 创建服务，缓存、归档、推送都可以不配置
func NewService(tracks TrackStore, scores ScoreStore, opts ...Option) *Service {
	s := &Service{tracks: tracks, scores: scores}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadResult 上传乐谱后的结果
type UploadResult struct {
	Track         *model.Track         `json:"track"`
	Sections      []model.SectionBlock `json:"sections"`
	ArchiveObject string               `json:"-"`
}

// cachedScore 缓存里保存的记录
type cachedScore struct {
	ID        int64           `json:"id"`
	TrackID   string          `json:"trackId"`
	ScoreData json.RawMessage `json:"scoreData"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// GetTrack 按 Spotify ID 查询曲目
func (s *Service) GetTrack(ctx context.Context, spotifyID string) (*model.Track, error) {
	track, err := s.tracks.GetBySpotifyID(ctx, spotifyID)
	if err != nil {
		return nil, fmt.Errorf("get track %s: %w", spotifyID, err)
	}
	if track == nil {
		return nil, ErrTrackNotFound
	}
	return track, nil
}

// CreateTrack 新建曲目
func (s *Service) CreateTrack(ctx context.Context, track *model.Track) error {
	if track == nil || strings.TrimSpace(track.SpotifyID) == "" || strings.TrimSpace(track.Name) == "" {
		return fmt.Errorf("%w: spotifyId and name are required", ErrInvalidTrack)
	}

	if err := s.tracks.Create(ctx, track); err != nil {
		if errors.Is(err, repository.ErrDuplicateTrack) {
			return ErrTrackExists
		}
		return fmt.Errorf("create track %s: %w", track.SpotifyID, err)
	}
	logger.Info("曲目已创建", logger.String("trackId", track.SpotifyID), logger.String("name", track.Name))
	return nil
}

// UpdateTrack 更新曲目元数据，返回更新后的记录
func (s *Service) UpdateTrack(ctx context.Context, track *model.Track) (*model.Track, error) {
	if track == nil || strings.TrimSpace(track.SpotifyID) == "" {
		return nil, fmt.Errorf("%w: spotifyId is required", ErrInvalidTrack)
	}
	if _, err := s.GetTrack(ctx, track.SpotifyID); err != nil {
		return nil, err
	}
	if err := s.tracks.Update(ctx, track); err != nil {
		return nil, fmt.Errorf("update track %s: %w", track.SpotifyID, err)
	}
	return s.GetTrack(ctx, track.SpotifyID)
}

const (
	DefaultSimilarLimit = 20
	MaxSimilarLimit     = 100
)

// SimilarKeyTracks 与该曲目调性、调式相同的其他曲目；还没有乐谱分析时返回空列表
func (s *Service) SimilarKeyTracks(ctx context.Context, spotifyID string, limit int) ([]*model.Track, error) {
	track, err := s.GetTrack(ctx, spotifyID)
	if err != nil {
		return nil, err
	}
	if track.Key == "" {
		return []*model.Track{}, nil
	}

	switch {
	case limit <= 0:
		limit = DefaultSimilarLimit
	case limit > MaxSimilarLimit:
		limit = MaxSimilarLimit
	}

	tracks, err := s.tracks.ListByKey(ctx, track.Key, track.Scale, spotifyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tracks in %s %s: %w", track.Key, track.Scale, err)
	}
	if tracks == nil {
		tracks = []*model.Track{}
	}
	return tracks, nil
}

// GetScore 取最新乐谱，先查 Redis 再查 MySQL；没有乐谱时返回 (nil, nil)
func (s *Service) GetScore(ctx context.Context, trackID string) (*model.Score, error) {
	if cached := s.readCache(ctx, trackID); cached != nil {
		return cached, nil
	}

	latest, err := s.scores.GetLatestByTrackID(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("get score for %s: %w", trackID, err)
	}
	if latest == nil {
		return nil, nil
	}

	s.writeCache(ctx, latest)
	return latest, nil
}

// GetSectionBlocks 每次读取都重新计算段落块
func (s *Service) GetSectionBlocks(ctx context.Context, trackID string) ([]model.SectionBlock, error) {
	raw, err := s.latestRawScore(ctx, trackID)
	if err != nil {
		return nil, err
	}
	return score.BuildSectionBlocks(raw), nil
}

// GetAnalysis 最新乐谱的概要
func (s *Service) GetAnalysis(ctx context.Context, trackID string) (*model.ScoreAnalysis, error) {
	raw, err := s.latestRawScore(ctx, trackID)
	if err != nil {
		return nil, err
	}
	analysis := score.Analyze(raw)
	analysis.TrackID = trackID
	return &analysis, nil
}

// UploadScore 保存新乐谱并回写曲目的调性、和弦表和段落名
func (s *Service) UploadScore(ctx context.Context, trackID string, data []byte) (*UploadResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidScore)
	}
	raw, err := score.ParseRawScore(data)
	if err != nil {
		return nil, err
	}
	if err := score.ValidateSections(raw.Sections); err != nil {
		return nil, err
	}

	if _, err := s.GetTrack(ctx, trackID); err != nil {
		return nil, err
	}

	update, err := analysisUpdate(raw)
	if err != nil {
		return nil, err
	}

	if _, err := s.scores.SaveLatest(ctx, trackID, data); err != nil {
		return nil, fmt.Errorf("save score for %s: %w", trackID, err)
	}
	// 落库后立即清缓存
	s.evictCache(ctx, trackID)

	if err := s.tracks.UpdateAnalysis(ctx, trackID, update); err != nil {
		return nil, fmt.Errorf("update track analysis %s: %w", trackID, err)
	}

	track, err := s.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{Track: track, Sections: score.BuildSectionBlocks(raw)}

	if s.archive != nil {
		object, err := s.archive.ArchiveScore(ctx, trackID, data)
		if err != nil {
			logger.Warn("乐谱归档失败", logger.String("trackId", trackID), logger.ErrorField(err))
		} else {
			result.ArchiveObject = object
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyScoreUpdated(trackID, result.Sections)
	}

	logger.Info("乐谱已更新",
		logger.String("trackId", trackID),
		logger.Int("sections", len(result.Sections)),
		logger.Int("bytes", len(data)))
	return result, nil
}

func (s *Service) latestRawScore(ctx context.Context, trackID string) (*model.RawScore, error) {
	latest, err := s.GetScore(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &model.RawScore{}, nil
	}
	raw, err := score.ParseRawScore(latest.ScoreData)
	if err != nil {
		// 旧格式或损坏的数据按无乐谱处理
		logger.Warn("已存乐谱无法解析，按空乐谱处理",
			logger.String("trackId", trackID),
			logger.Int64("scoreId", latest.ID),
			logger.ErrorField(err))
		return &model.RawScore{}, nil
	}
	return raw, nil
}

func (s *Service) evictCache(ctx context.Context, trackID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, trackID); err != nil {
		logger.Warn("清除乐谱缓存失败", logger.String("trackId", trackID), logger.ErrorField(err))
	}
}

func (s *Service) readCache(ctx context.Context, trackID string) *model.Score {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, trackID)
	if err != nil || data == nil {
		return nil
	}

	var entry cachedScore
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("乐谱缓存格式错误，忽略", logger.String("trackId", trackID), logger.ErrorField(err))
		return nil
	}
	return &model.Score{
		ID:        entry.ID,
		TrackID:   entry.TrackID,
		ScoreData: []byte(entry.ScoreData),
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

func (s *Service) writeCache(ctx context.Context, sc *model.Score) {
	if s.cache == nil || !json.Valid(sc.ScoreData) {
		return
	}
	data, err := json.Marshal(cachedScore{
		ID:        sc.ID,
		TrackID:   sc.TrackID,
		ScoreData: json.RawMessage(sc.ScoreData),
		CreatedAt: sc.CreatedAt,
		UpdatedAt: sc.UpdatedAt,
	})
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, sc.TrackID, data)
}

// analysisUpdate tracks 表里 chords / sections 存 JSON 字符串
func analysisUpdate(raw *model.RawScore) (model.TrackAnalysisUpdate, error) {
	tonic, scale := score.PrimaryKey(raw.Keys)
	chords, err := json.Marshal(score.ChordVocabulary(raw.Chords))
	if err != nil {
		return model.TrackAnalysisUpdate{}, fmt.Errorf("encode chords: %w", err)
	}
	sections, err := json.Marshal(score.SectionNames(raw.Sections))
	if err != nil {
		return model.TrackAnalysisUpdate{}, fmt.Errorf("encode sections: %w", err)
	}
	return model.TrackAnalysisUpdate{
		Key:      tonic,
		Scale:    scale,
		Chords:   string(chords),
		Sections: string(sections),
	}, nil
}
