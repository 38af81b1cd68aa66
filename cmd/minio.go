package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"Chordbook/config"
	"Chordbook/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "乐谱归档管理",
	Long:  `查看和管理MinIO中归档的乐谱，支持列出文件、查看统计信息、删除目录。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		archive, err := storage.NewScoreArchive(cfg)
		if err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		switch {
		case minioDelete:
			n, err := archive.DeletePrefix(ctx, minioPrefix)
			if err != nil {
				log.Fatalf("删除目录失败: %v", err)
			}
			fmt.Printf("已删除 %d 个对象 (前缀: %s)\n", n, minioPrefix)

		case minioStats:
			stats, err := archive.Stats(ctx, minioPrefix)
			if err != nil {
				log.Fatalf("获取统计信息失败: %v", err)
			}
			fmt.Printf("对象数量: %d\n", stats.TotalObjects)
			fmt.Printf("总大小: %.2f KB\n", float64(stats.TotalSize)/1024)
			if !stats.LastModified.IsZero() {
				fmt.Printf("最后修改时间: %s\n", stats.LastModified.Format(time.RFC3339))
			}

		default:
			objects, err := archive.ListArchives(ctx, minioPrefix)
			if err != nil {
				log.Fatalf("列出文件失败: %v", err)
			}
			rows := make([][]string, 0, len(objects))
			for _, o := range objects {
				rows = append(rows, []string{o.Key, strconv.FormatInt(o.Size, 10), o.LastModified.Format(time.RFC3339)})
			}
			fmt.Println(renderTable([]string{"Object", "Bytes", "Modified"}, rows, isTerminal(os.Stdout)))
		}
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", storage.ScorePrefix, "按前缀过滤文件或指定要操作的目录")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "显示统计信息")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除指定目录及其下的所有文件")

	minioCmd.Example = `  # 列出所有归档
  chordbook_server minio

  # 某首歌的归档
  chordbook_server minio -p "scores/4uLU6hMCjMI75M1A2tKUQC/"

  # 统计信息
  chordbook_server minio -s`
}
