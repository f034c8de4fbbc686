package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesentry/pkg/internal/ipc"
)

// 客户端子命令：通过命令通道和运行中的守护进程对话.
var (
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the engine status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			status := ipc.NewClient().Status()

			fmt.Fprintf(cmd.OutOrStdout(), "State:    %s\n", status.State)

			if status.State == ipc.StateDisconnected {
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed:  %d files\n", status.IndexedCount)
			fmt.Fprintf(cmd.OutOrStdout(), "Crawling: %v\n", status.IsCrawling)

			return nil
		},
	}

	searchCmd = &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the indexed files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			results, err := ipc.NewClient().Search(strings.Join(args, " "))
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")

				return nil
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  (%d bytes)\n", r.Path, r.Size)
			}

			return nil
		},
	}

	rebuildCmd = &cobra.Command{
		Use:   "rebuild",
		Short: "Wipe the index and re-crawl all locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			if err := ipc.NewClient().Rebuild(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "rebuild started")

			return nil
		},
	}

	undoCmd = &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent reversible automation action",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			if err := ipc.NewClient().Undo(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "done")

			return nil
		},
	}

	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "List the active automation rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureConfig(); err != nil {
				return err
			}

			rules, err := ipc.NewClient().Rules()
			if err != nil {
				return err
			}

			for _, r := range rules {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s if %s=%q then %s %q\n",
					r.Name, r.ConditionType, r.ConditionValue, r.ActionType, r.ActionValue)
			}

			return nil
		},
	}
)

// registerClientCommands 注册客户端子命令.
func registerClientCommands() {
	rootCmd.AddCommand(statusCmd, searchCmd, rebuildCmd, undoCmd, rulesCmd)
}
