package model

import "time"

// ChordEvent 和弦事件，锚定在某一拍上
// 数字字段按 JSON number 解码，缺省为 0
type ChordEvent struct {
	Beat        float64   `json:"beat"`
	Root        float64   `json:"root"`        // 1=C ... 12=B
	Type        float64   `json:"type"`        // 5=大三, 3=小三
	Suspensions []float64 `json:"suspensions"` // 挂留音级，仅第一个参与显示
}

// LyricEvent 歌词事件
type LyricEvent struct {
	Beat float64 `json:"beat"`
	Text string  `json:"text"`
}

// Section 歌曲段落，由起始拍定义
type Section struct {
	Name string  `json:"name"`
	Beat float64 `json:"beat"`
}

// KeySignature 调性信息
type KeySignature struct {
	Beat  float64 `json:"beat,omitempty"`
	Tonic string  `json:"tonic"`
	Scale string  `json:"scale"`
}

// RawScore 乐谱原始数据（上传或存储的 JSON）
// lyrics 为二维数组，只使用第一行
type RawScore struct {
	Sections []Section      `json:"sections"`
	Chords   []ChordEvent   `json:"chords"`
	Lyrics   [][]LyricEvent `json:"lyrics"`
	Keys     []KeySignature `json:"keys,omitempty"`
}

// SectionBlock 段落块：段落名 + 可读和弦序列 + 歌词序列
type SectionBlock struct {
	Name   string   `json:"name"`
	Chords []string `json:"chords"`
	Lyrics []string `json:"lyrics"`
}

// ScoreAnalysis 乐谱概要（调性、和弦表、最常用和弦、段落名）
type ScoreAnalysis struct {
	TrackID       string   `json:"trackId,omitempty"`
	Tonic         string   `json:"tonic"`
	Scale         string   `json:"scale"`
	Chords        []string `json:"chords"`
	TopChord      string   `json:"topChord"`
	TopChordCount int      `json:"topChordCount"`
	Sections      []string `json:"sections"`
	ChordCount    int      `json:"chordCount"`
	SectionCount  int      `json:"sectionCount"`
}

// Score 乐谱存储记录，每首歌只保留最新一份
type Score struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TrackID   string    `gorm:"size:255;not null;index" json:"trackId"`
	ScoreData []byte    `gorm:"type:json;not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Score) TableName() string {
	return "scores"
}
