package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"Chordbook/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ScorePrefix 乐谱归档的对象前缀
const ScorePrefix = "scores/"

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// ScoreArchive 把每次上传的乐谱原文保存到 MinIO
type ScoreArchive struct {
	client *minio.Client
	bucket string
}

// NewScoreArchive 创建 MinIO 客户端，存储桶不存在时创建
func NewScoreArchive(cfg *config.Config) (*ScoreArchive, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		log.Printf("✅ 成功创建存储桶: %s", cfg.MinioBucket)
	}

	return &ScoreArchive{client: client, bucket: cfg.MinioBucket}, nil
}

// Bucket 存储桶名
func (a *ScoreArchive) Bucket() string {
	return a.bucket
}

// ArchiveObjectName scores/{trackID}/{yyyymmddThhmmssZ}-{id}.json
func ArchiveObjectName(trackID string, at time.Time, id string) string {
	return fmt.Sprintf("%s%s/%s-%s.json", ScorePrefix, trackID, at.UTC().Format("20060102T150405Z"), id)
}

// ArchiveScore 上传乐谱原文，返回对象名
func (a *ScoreArchive) ArchiveScore(ctx context.Context, trackID string, data []byte) (string, error) {
	name := ArchiveObjectName(trackID, time.Now(), uuid.NewString())
	_, err := a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("上传乐谱归档失败: %w", err)
	}
	return name, nil
}

// ListArchives 按前缀列出对象，按修改时间倒序
func (a *ScoreArchive) ListArchives(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for object := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}
	sortByLastModified(objects)
	return objects, nil
}

// Stats 统计前缀下的对象数量和大小
func (a *ScoreArchive) Stats(ctx context.Context, prefix string) (*BucketStats, error) {
	objects, err := a.ListArchives(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return summarize(objects), nil
}

// DeletePrefix 删除前缀下的所有对象，返回删除数量
func (a *ScoreArchive) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("删除操作需要指定目录前缀")
	}

	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for object := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if object.Err != nil {
				log.Printf("列出对象时出错: %v", object.Err)
				continue
			}
			objectsCh <- object
		}
	}()

	deleted := 0
	for object := range objectsCh {
		if err := a.client.RemoveObject(ctx, a.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return deleted, fmt.Errorf("删除对象 %s 失败: %w", object.Key, err)
		}
		deleted++
	}
	return deleted, nil
}

func sortByLastModified(objects []ObjectInfo) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}

func summarize(objects []ObjectInfo) *BucketStats {
	stats := &BucketStats{}
	for _, o := range objects {
		stats.TotalObjects++
		stats.TotalSize += o.Size
		if o.LastModified.After(stats.LastModified) {
			stats.LastModified = o.LastModified
		}
	}
	return stats
}
