package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Chordbook/config"
	"Chordbook/core/ingest"
	"Chordbook/logger"
	"Chordbook/server"

	"github.com/spf13/cobra"
)

var (
	watchDir    string
	watchSettle time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "监听投递目录并导入乐谱",
	Long:  `把 {trackID}.json 放进目录即可导入为该曲目的最新乐谱，成功的文件移到 processed/，失败的移到 failed/。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := initLogger(cfg); err != nil {
			return err
		}
		defer logger.Sync()

		dir := watchDir
		if dir == "" {
			dir = cfg.IngestDir
		}
		if dir == "" {
			return fmt.Errorf("no ingest directory: pass --dir or set INGEST_DIR")
		}

		svc, cleanup, err := server.NewCatalog(cfg, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return ingest.NewWatcher(dir, svc, watchSettle).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "投递目录（默认读取 INGEST_DIR）")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", ingest.DefaultSettle, "同一文件连续写入的合并窗口")
}
