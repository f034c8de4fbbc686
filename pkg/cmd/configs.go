package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesentry/pkg/configs"
)

var (
	// config 子命令：排查守护进程的生效配置.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "inspect the daemon configuration",
	}

	// 打印实际加载的配置文件路径.
	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the config file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			used := configs.GetViper().ConfigFileUsed()
			if used == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and env only)")

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), used)

			return nil
		},
	}

	// 打印生效的配置值.排查根目录列表、去抖窗口之类的配置问题时用.
	configDumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "print the effective config values as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			if debug {
				configs.GetViper().Debug()
			}

			b, err := json.MarshalIndent(configs.GetConfig(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// registerConfigsCommands 注册配置相关命令.
func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configDumpCmd)
	rootCmd.AddCommand(configCmd)
}
