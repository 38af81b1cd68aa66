package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"Chordbook/core/score"
	"Chordbook/core/scoreclient"
	"Chordbook/model"

	"github.com/spf13/cobra"
)

var (
	renderServer string
	renderTrack  string
)

var renderCmd = &cobra.Command{
	Use:   "render [score.json]",
	Short: "按段落打印和弦与歌词",
	Long:  `读取本地乐谱 JSON（"-" 表示标准输入），或通过 --server/--track 从服务端读取，按段落输出和弦与歌词。`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var blocks []model.SectionBlock
		switch {
		case renderServer != "":
			if renderTrack == "" {
				return fmt.Errorf("--track is required with --server")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			res := scoreclient.NewClient(renderServer, nil).FetchSections(ctx, renderTrack)
			if res.IsFailed() {
				return fmt.Errorf("fetch sections: %s", res.Reason)
			}
			blocks = res.Data

		case len(args) == 1:
			data, err := readScoreInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			raw, err := score.ParseRawScore(data)
			if err != nil {
				return err
			}
			blocks = score.BuildSectionBlocks(raw)

		default:
			return fmt.Errorf("pass a score file or --server with --track")
		}

		color := false
		if f, ok := cmd.OutOrStdout().(*os.File); ok {
			color = isTerminal(f)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSections(blocks, color))
		return nil
	},
}

func readScoreInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderServer, "server", "", "服务地址，例如 http://localhost:8080")
	renderCmd.Flags().StringVar(&renderTrack, "track", "", "曲目的 Spotify ID")
}
