package cmd

import (
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Chordbook服务器",
	Long:  `启动HTTP服务器，提供曲目、乐谱、段落和弦的API以及WebSocket推送`,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
