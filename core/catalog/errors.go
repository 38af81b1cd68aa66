package catalog

import (
	"errors"

	"Chordbook/core/score"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrTrackExists   = errors.New("track already exists")
	ErrInvalidTrack  = errors.New("invalid track")

	// 乐谱解析和段落顺序错误沿用 score 包的定义，便于 errors.Is 统一判断
	ErrInvalidScore       = score.ErrInvalidScore
	ErrSectionsOutOfOrder = score.ErrSectionsOutOfOrder
)
