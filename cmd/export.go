package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/export"
)

var (
	format     string
	outputPath string
	toStdout   bool
)

// exportCmd writes the active conversation to a file
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current conversation to a file",
	Long: `Export the active conversation in one of several formats (jsonl, md, yaml, json).

The conversation is loaded from the service first. Without -o the file is
named after the conversation id and written to the current directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		return withSession(commandContext(cmd), func(a *app) error {
			session := a.sessions.Snapshot()
			if session.ID == "" {
				internal.PrintInfo("No active conversation to export.")
				return nil
			}

			if toStdout {
				return exporter.Export(session, cmd.OutOrStdout())
			}

			path := outputPath
			if path == "" {
				path = export.DefaultFilename(exporter, session)
			} else if filepath.Ext(path) == "" {
				path = path + "." + exporter.Extension()
			}
			if err := export.WriteFile(exporter, session, path); err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Exported %s to %s", pluralMessages(len(session.Messages)), path))
			return nil
		})
	},
}

func pluralMessages(n int) string {
	if n == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", n)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format: jsonl, md, yaml, json")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default <conversation-id>.<ext>)")
	exportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to standard output instead of a file")
}
