package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"Chordbook/model"
	"Chordbook/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTracks struct {
	mu     sync.Mutex
	tracks map[string]*model.Track
}

func newMemTracks(tracks ...*model.Track) *memTracks {
	m := &memTracks{tracks: map[string]*model.Track{}}
	for _, t := range tracks {
		m.tracks[t.SpotifyID] = t
	}
	return m
}

func (m *memTracks) GetBySpotifyID(_ context.Context, id string) (*model.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTracks) Create(_ context.Context, t *model.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracks[t.SpotifyID]; ok {
		return repository.ErrDuplicateTrack
	}
	cp := *t
	m.tracks[t.SpotifyID] = &cp
	return nil
}

func (m *memTracks) Update(_ context.Context, t *model.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.tracks[t.SpotifyID]
	existing.Name = t.Name
	existing.ArtistName = t.ArtistName
	return nil
}

func (m *memTracks) UpdateAnalysis(_ context.Context, id string, u model.TrackAnalysisUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tracks[id]
	t.Key, t.Scale, t.Chords, t.Sections = u.Key, u.Scale, u.Chords, u.Sections
	return nil
}

func (m *memTracks) ListByKey(_ context.Context, key, scale, exclude string, limit int) ([]*model.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Track
	for id, t := range m.tracks {
		if id != exclude && t.Key == key && t.Scale == scale {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Popularity > out[j].Popularity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memScores struct {
	latest map[string]*model.Score
	reads  int
	nextID int64
}

func newMemScores() *memScores {
	return &memScores{latest: map[string]*model.Score{}}
}

func (m *memScores) GetLatestByTrackID(_ context.Context, id string) (*model.Score, error) {
	m.reads++
	return m.latest[id], nil
}

func (m *memScores) SaveLatest(_ context.Context, id string, data []byte) (*model.Score, error) {
	s, ok := m.latest[id]
	if !ok {
		m.nextID++
		s = &model.Score{ID: m.nextID, TrackID: id, CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
		m.latest[id] = s
	}
	s.ScoreData = data
	return s, nil
}

type memCache struct {
	data    map[string][]byte
	deletes int
}

func (c *memCache) Get(_ context.Context, id string) ([]byte, error) { return c.data[id], nil }
func (c *memCache) Set(_ context.Context, id string, d []byte) error {
	c.data[id] = d
	return nil
}
func (c *memCache) Delete(_ context.Context, id string) error {
	c.deletes++
	delete(c.data, id)
	return nil
}

type failingArchive struct{ calls int }

func (a *failingArchive) ArchiveScore(context.Context, string, []byte) (string, error) {
	a.calls++
	return "", errors.New("minio unavailable")
}

type recordingNotifier struct {
	trackID  string
	sections []model.SectionBlock
}

func (n *recordingNotifier) NotifyScoreUpdated(id string, s []model.SectionBlock) {
	n.trackID, n.sections = id, s
}

const sampleScore = `{
	"sections": [{"name": "Intro", "beat": 0}, {"name": "Verse", "beat": 4}],
	"chords": [{"beat": 0, "root": 1, "type": 5, "suspensions": []}, {"beat": 5, "root": 6, "type": 3, "suspensions": []}],
	"lyrics": [[{"beat": 0, "text": "Hello"}, {"beat": 5, "text": "World"}]],
	"keys": [{"beat": 0, "tonic": "C", "scale": "major"}]
}`

func TestUploadScoreUpdatesTrackAndNotifies(t *testing.T) {
	ctx := context.Background()
	tracks := newMemTracks(&model.Track{SpotifyID: "t1", Name: "Song"})
	cache := &memCache{data: map[string][]byte{"t1": []byte(`stale`)}}
	archive := &failingArchive{}
	notifier := &recordingNotifier{}
	svc := NewService(tracks, newMemScores(), WithCache(cache), WithArchive(archive), WithNotifier(notifier))

	res, err := svc.UploadScore(ctx, "t1", []byte(sampleScore))
	require.NoError(t, err)

	want := []model.SectionBlock{
		{Name: "Intro", Chords: []string{"C"}, Lyrics: []string{"Hello"}},
		{Name: "Verse", Chords: []string{"Fm"}, Lyrics: []string{"World"}},
	}
	assert.Equal(t, want, res.Sections)
	assert.Equal(t, "C", res.Track.Key)
	assert.Equal(t, "major", res.Track.Scale)
	assert.JSONEq(t, `["C","Fm"]`, res.Track.Chords)
	assert.JSONEq(t, `["Intro","Verse"]`, res.Track.Sections)

	assert.Equal(t, 1, archive.calls, "archive failure is not fatal")
	assert.Empty(t, res.ArchiveObject)
	assert.Equal(t, 1, cache.deletes)
	assert.Equal(t, "t1", notifier.trackID)
	assert.Equal(t, want, notifier.sections)
}

func TestUploadScoreErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemTracks(&model.Track{SpotifyID: "t1", Name: "Song"}), newMemScores())

	_, err := svc.UploadScore(ctx, "missing", []byte(sampleScore))
	assert.ErrorIs(t, err, ErrTrackNotFound)

	_, err = svc.UploadScore(ctx, "t1", []byte("  "))
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = svc.UploadScore(ctx, "t1", []byte(`{"sections": [`))
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = svc.UploadScore(ctx, "t1", []byte(`{"sections": [{"name": "B", "beat": 8}, {"name": "A", "beat": 0}]}`))
	assert.ErrorIs(t, err, ErrSectionsOutOfOrder)
}

func TestGetScoreUsesCache(t *testing.T) {
	ctx := context.Background()
	scores := newMemScores()
	cache := &memCache{data: map[string][]byte{}}
	svc := NewService(newMemTracks(), scores, WithCache(cache))

	missing, err := svc.GetScore(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = scores.SaveLatest(ctx, "t1", []byte(sampleScore))
	require.NoError(t, err)

	first, err := svc.GetScore(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, first)
	readsAfterFirst := scores.reads
	assert.Contains(t, cache.data, "t1")

	second, err := svc.GetScore(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, readsAfterFirst, scores.reads, "second read served from cache")
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.JSONEq(t, sampleScore, string(second.ScoreData))
}

func TestGetSectionBlocksAndAnalysis(t *testing.T) {
	ctx := context.Background()
	scores := newMemScores()
	svc := NewService(newMemTracks(), scores)

	blocks, err := svc.GetSectionBlocks(ctx, "none")
	require.NoError(t, err)
	assert.NotNil(t, blocks)
	assert.Empty(t, blocks)

	_, _ = scores.SaveLatest(ctx, "t1", []byte(sampleScore))
	blocks, err = svc.GetSectionBlocks(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	analysis, err := svc.GetAnalysis(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", analysis.TrackID)
	assert.Equal(t, []string{"C", "Fm"}, analysis.Chords)
	assert.Equal(t, []string{"Intro", "Verse"}, analysis.Sections)
}

func TestTrackLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemTracks(), newMemScores())

	assert.ErrorIs(t, svc.CreateTrack(ctx, &model.Track{SpotifyID: "t1"}), ErrInvalidTrack)
	require.NoError(t, svc.CreateTrack(ctx, &model.Track{SpotifyID: "t1", Name: "Song"}))
	assert.ErrorIs(t, svc.CreateTrack(ctx, &model.Track{SpotifyID: "t1", Name: "Again"}), ErrTrackExists)

	updated, err := svc.UpdateTrack(ctx, &model.Track{SpotifyID: "t1", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	_, err = svc.UpdateTrack(ctx, &model.Track{SpotifyID: "nope", Name: "x"})
	assert.ErrorIs(t, err, ErrTrackNotFound)

	_, err = svc.GetTrack(ctx, "nope")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

type brokenAnalysisTracks struct {
	*memTracks
}

func (brokenAnalysisTracks) UpdateAnalysis(context.Context, string, model.TrackAnalysisUpdate) error {
	return errors.New("mysql gone")
}

func TestUploadScoreEvictsCacheWhenAnalysisFails(t *testing.T) {
	ctx := context.Background()
	tracks := brokenAnalysisTracks{newMemTracks(&model.Track{SpotifyID: "t1", Name: "Song"})}
	scores := newMemScores()
	cache := &memCache{data: map[string][]byte{}}
	svc := NewService(tracks, scores, WithCache(cache))

	_, err := scores.SaveLatest(ctx, "t1", []byte(`{
		"sections": [{"name": "Old", "beat": 0}],
		"chords": [{"beat": 0, "root": 1, "type": 5}],
		"lyrics": [[{"beat": 0, "text": "old"}]]
	}`))
	require.NoError(t, err)
	before, err := svc.GetSectionBlocks(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "Old", before[0].Name)
	require.Contains(t, cache.data, "t1")

	_, err = svc.UploadScore(ctx, "t1", []byte(sampleScore))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql gone")
	assert.Equal(t, 1, cache.deletes)

	after, err := svc.GetSectionBlocks(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "Intro", after[0].Name, "reads see the stored score, not the stale cache")
}

func TestUnparsableStoredScoreReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	scores := newMemScores()
	svc := NewService(newMemTracks(), scores)

	// 旧版本的 lyrics 是对象
	_, err := scores.SaveLatest(ctx, "t1", []byte(`{
		"sections": [{"name": "Intro", "beat": 0}],
		"chords": [{"beat": 0, "root": 1, "type": 5}],
		"lyrics": {"sectionLyrics": []}
	}`))
	require.NoError(t, err)

	blocks, err := svc.GetSectionBlocks(ctx, "t1")
	require.NoError(t, err)
	assert.NotNil(t, blocks)
	assert.Empty(t, blocks)

	analysis, err := svc.GetAnalysis(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", analysis.TrackID)
	assert.Empty(t, analysis.Chords)
	assert.Equal(t, 0, analysis.ChordCount)
}

func TestSimilarKeyTracks(t *testing.T) {
	ctx := context.Background()
	tracks := newMemTracks(
		&model.Track{SpotifyID: "t1", Name: "Song", Key: "C", Scale: "major"},
		&model.Track{SpotifyID: "t2", Name: "Quiet", Key: "C", Scale: "major", Popularity: 10},
		&model.Track{SpotifyID: "t3", Name: "Loud", Key: "C", Scale: "major", Popularity: 90},
		&model.Track{SpotifyID: "t4", Name: "Sad", Key: "C", Scale: "minor"},
		&model.Track{SpotifyID: "t5", Name: "Fresh"},
	)
	svc := NewService(tracks, newMemScores())

	similar, err := svc.SimilarKeyTracks(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "t3", similar[0].SpotifyID)
	assert.Equal(t, "t2", similar[1].SpotifyID)

	one, err := svc.SimilarKeyTracks(ctx, "t1", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	none, err := svc.SimilarKeyTracks(ctx, "t5", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.SimilarKeyTracks(ctx, "missing", 10)
	assert.ErrorIs(t, err, ErrTrackNotFound)
}
