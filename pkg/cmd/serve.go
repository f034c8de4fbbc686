package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/filesentry/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the indexing engine daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.NewApp(configPath).Run()
	},
}

// registerServeCommand 注册守护进程启动命令.
func registerServeCommand() {
	rootCmd.AddCommand(serveCmd)
}
