package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iksnae/guidechat/internal"
)

var (
	verbose     bool
	configPath  string
	apiURL      string
	storagePath string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "guidechat",
	Short: "Chat with the guide assistant from your terminal",
	Long: `A command-line client for the guide chat service.

Log in, start a conversation, and get answers from the assistant. The service
queues each message and the client polls until the answer is ready.

Quick Start:
  guidechat register -u alice          # Create an account
  guidechat login -u alice             # Log in
  guidechat chat                       # Start an interactive conversation
  guidechat chat -m "Where do I start?" # Ask a single question
  guidechat export --format md         # Save the conversation as Markdown

Settings are read from ~/.guidechat/config.yaml, a .env file and
GUIDECHAT_* environment variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.guidechat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Chat service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Path to the local state database (overrides config)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
