package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mq "github.com/yeisme/filesentry/pkg/internal/storage/mq"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message bus related commands",
		Aliases: []string{"bus"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered bus types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered bus types:")
			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}
)

// registerMQCommands 注册消息总线相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
}
