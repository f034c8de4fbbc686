// Package cmd contains the command line applications for the project.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesentry/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "filesentry",
		Short: "A local file indexing and automation engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ensureConfig 为客户端类子命令加载配置（取套接字路径等）.
func ensureConfig() error {
	if err := configs.InitConfig(configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose debug output")

	registerServeCommand()
	registerClientCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerMQCommands()
}
