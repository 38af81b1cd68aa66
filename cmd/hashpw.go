package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"Chordbook/core/auth"

	"github.com/spf13/cobra"
)

var hashpwCmd = &cobra.Command{
	Use:   "hashpw [password]",
	Short: "生成管理员密码的 bcrypt 哈希",
	Long:  `输出可直接写入 ADMIN_PASSWORD_HASH 的 bcrypt 哈希；未传参数时从标准输入读取一行。`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashpwCmd)
}
