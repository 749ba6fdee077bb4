package cmd

import (
	"github.com/spf13/cobra"

	"github.com/iksnae/guidechat/internal"
)

var limit int

// historyCmd prints the active conversation
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the current conversation",
	Long: `Load the active conversation from the service and print it.

If the stored conversation can no longer be loaded it is discarded and the
next message starts a new one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(commandContext(cmd), func(a *app) error {
			session := a.sessions.Snapshot()
			if session.ID == "" {
				internal.PrintInfo("No active conversation. Use 'guidechat chat' to start one.")
				return nil
			}
			newPrinter(cmd.OutOrStdout()).conversation(session, limit)
			return nil
		})
	},
}

// newCmd starts a blank conversation
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			id, err := a.sessions.StartNew()
			if err != nil {
				internal.PrintWarning("The new conversation will not be remembered: " + err.Error())
			}
			internal.PrintSuccess("Started a new conversation.")
			internal.LogInfo("Session id: %s", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(newCmd)
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages")
}
