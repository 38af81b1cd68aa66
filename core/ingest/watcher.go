// Package ingest 监听投递目录，把 {trackID}.json 导入为曲目的最新乐谱。
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"Chordbook/core/catalog"
	"Chordbook/logger"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const (
	LockFileName  = ".ingest.lock"
	ProcessedDir  = "processed"
	FailedDir     = "failed"
	DefaultSettle = 500 * time.Millisecond
)

// ErrLocked 同一目录已有其他 watcher
var ErrLocked = errors.New("ingest directory is locked by another process")

// Uploader 导入乐谱
type Uploader interface {
	UploadScore(ctx context.Context, trackID string, data []byte) (*catalog.UploadResult, error)
}

// Watcher 投递目录监听器
type Watcher struct {
	dir      string
	uploader Uploader
	settle   time.Duration
	lock     *flock.Flock
	log      *zap.Logger

	mu         sync.Mutex
	debouncers map[string]func(func())
	jobs       chan string
}

// NewWatcher settle 为同一文件连续写入的合并窗口，<=0 时使用默认值
func NewWatcher(dir string, uploader Uploader, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		dir:        dir,
		uploader:   uploader,
		settle:     settle,
		lock:       flock.New(filepath.Join(dir, LockFileName)),
		log:        logger.With(logger.String("component", "ingest"), logger.String("dir", dir)),
		debouncers: make(map[string]func(func())),
		jobs:       make(chan string, 64),
	}
}

// TrackIDFromPath a/b/{trackID}.json -> trackID
func TrackIDFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(name), ".json") || strings.HasPrefix(name, ".") {
		return "", false
	}
	id := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// Run 阻塞直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create %s dir: %w", sub, err)
		}
	}

	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.log.Warn("释放投递目录锁失败", logger.ErrorField(err))
		}
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("监听目录失败: %w", err)
	}

	w.log.Info("开始监听乐谱投递目录")

	go w.worker(ctx)

	// 启动前已经存在的文件
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read ingest dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.schedule(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("文件监听错误", logger.ErrorField(err))
		}
	}
}

// schedule 同一文件在 settle 内的多次事件只导入一次
func (w *Watcher) schedule(ctx context.Context, path string) {
	if _, ok := TrackIDFromPath(path); !ok {
		return
	}

	w.mu.Lock()
	debounced, ok := w.debouncers[path]
	if !ok {
		debounced = debounce.New(w.settle)
		w.debouncers[path] = debounced
	}
	w.mu.Unlock()

	debounced(func() {
		select {
		case w.jobs <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.jobs:
			w.importFile(ctx, path)
		}
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.debouncers, path)
	w.mu.Unlock()

	trackID, _ := TrackIDFromPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.log.Warn("读取投递文件失败", logger.String("path", path), logger.ErrorField(err))
		}
		return
	}

	res, err := w.uploader.UploadScore(ctx, trackID, data)
	if err != nil {
		w.log.Warn("导入乐谱失败",
			logger.String("trackId", trackID),
			logger.String("path", path),
			logger.ErrorField(err))
		w.move(path, FailedDir)
		reason := filepath.Join(w.dir, FailedDir, filepath.Base(path)+".error")
		if werr := os.WriteFile(reason, []byte(err.Error()+"\n"), 0o644); werr != nil {
			w.log.Warn("写入失败原因失败", logger.ErrorField(werr))
		}
		return
	}

	w.move(path, ProcessedDir)
	w.log.Info("乐谱导入成功",
		logger.String("trackId", trackID),
		logger.Int("sections", len(res.Sections)))
}

func (w *Watcher) move(path, sub string) {
	target := filepath.Join(w.dir, sub, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		w.log.Warn("移动投递文件失败",
			logger.String("from", path),
			logger.String("to", target),
			logger.ErrorField(err))
	}
}
