package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesentry/pkg/configs"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "content store commands",
	}

	// 打印索引库文件的实际落盘位置.
	dbPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the content store file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), configs.GetConfig().DB.GetPath())

			return nil
		},
	}

	// 列出注册过的存储驱动.默认只有内嵌 sqlite，工厂注册表留给以后扩展.
	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list registered content store drivers",
		Run: func(cmd *cobra.Command, args []string) {
			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), string(dbType))
			}
		},
	}
)

// registerDBCommands 注册内容库相关命令.
func registerDBCommands() {
	dbCmd.AddCommand(dbPathCmd, dbListCmd)
	rootCmd.AddCommand(dbCmd)
}
