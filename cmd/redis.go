package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"Chordbook/cache"
	"Chordbook/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写操作。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		cfg := config.Load()
		fmt.Printf("Redis配置: %s, DB: %d\n", cfg.RedisAddr(), cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		defer func() {
			if err := cache.CloseRedis(); err != nil {
				log.Printf("关闭Redis连接时发生错误: %v", err)
			}
		}()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.RoundTrip(ctx); err != nil {
			log.Fatalf("Redis操作测试失败: %v", err)
		}
		fmt.Println("Redis基本操作测试成功！")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
