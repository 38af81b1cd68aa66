package repository

import (
	"context"
	"errors"

	"Chordbook/model"

	"gorm.io/gorm"
)

// ScoreRepository 乐谱数据访问接口
type ScoreRepository interface {
	GetLatestByTrackID(ctx context.Context, trackID string) (*model.Score, error)
	SaveLatest(ctx context.Context, trackID string, data []byte) (*model.Score, error)
}

type gormScoreRepository struct {
	db *gorm.DB
}

// NewGormScoreRepository 创建 GORM 乐谱仓库
func NewGormScoreRepository(db *gorm.DB) ScoreRepository {
	return &gormScoreRepository{db: db}
}

// GetLatestByTrackID 取最新一份乐谱，未找到时返回 (nil, nil)
func (r *gormScoreRepository) GetLatestByTrackID(ctx context.Context, trackID string) (*model.Score, error) {
	var score model.Score
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("created_at DESC, id DESC").
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &score, nil
}

// SaveLatest 覆盖最新一份乐谱，没有时插入
func (r *gormScoreRepository) SaveLatest(ctx context.Context, trackID string, data []byte) (*model.Score, error) {
	var saved *model.Score
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var score model.Score
		err := tx.Where("track_id = ?", trackID).
			Order("created_at DESC, id DESC").
			First(&score).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			score = model.Score{TrackID: trackID, ScoreData: data}
			if err := tx.Create(&score).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			score.ScoreData = data
			if err := tx.Save(&score).Error; err != nil {
				return err
			}
		}
		saved = &score
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
