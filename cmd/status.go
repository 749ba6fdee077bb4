package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iksnae/guidechat/internal/auth"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

var errServiceUnreachable = errors.New("chat service is unreachable")

// statusCmd reports configuration, login state and service reachability
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login state and check that the chat service is reachable",
	Long: `Check the client by reporting:
  • Resolved configuration
  • Local state database
  • Login state and credential expiry
  • Active conversation
  • Chat service reachability

Use --verbose for file paths and timings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return runStatus(commandContext(cmd), cmd.OutOrStdout(), a)
		})
	},
}

func runStatus(ctx context.Context, w io.Writer, a *app) error {
	fmt.Fprintln(w, sectionStyle.Render("🔍 Guide Chat Status"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, infoStyle.Render("Step 1: Configuration"))
	if a.cfg.Path != "" {
		fmt.Fprintln(w, successStyle.Render("✅ Loaded"), a.cfg.Path)
	} else {
		fmt.Fprintln(w, successStyle.Render("✅ Using defaults"))
	}
	fmt.Fprintf(w, "   API: %s\n", a.cfg.APIURL)
	if verbose {
		fmt.Fprintf(w, "   Poll interval: %s\n", a.cfg.PollInterval)
		fmt.Fprintf(w, "   Request timeout: %s\n", a.cfg.RequestTimeout)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, infoStyle.Render("Step 2: Local state"))
	fmt.Fprintln(w, successStyle.Render("✅ State database open"))
	if verbose {
		fmt.Fprintf(w, "   Database: %s\n", a.store.Path())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, infoStyle.Render("Step 3: Login"))
	claims, err := a.auth.Claims()
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		fmt.Fprintln(w, warningStyle.Render("⚠️  Not logged in"))
	case err != nil:
		fmt.Fprintln(w, errorStyle.Render("❌ Stored credential is unreadable"))
		if verbose {
			fmt.Fprintf(w, "   %v\n", err)
		}
	case !claims.Expiry.After(time.Now()):
		fmt.Fprintln(w, warningStyle.Render("⚠️  Credential expired at "+claims.Expiry.Local().Format(time.RFC1123)))
	default:
		who := claims.Subject
		if who == "" {
			who = "unknown user"
		}
		fmt.Fprintln(w, successStyle.Render("✅ Logged in as "+who))
		fmt.Fprintf(w, "   Expires: %s (in %s)\n", claims.Expiry.Local().Format(time.RFC1123), time.Until(claims.Expiry).Round(time.Minute))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, infoStyle.Render("Step 4: Conversation"))
	if id := a.sessions.SessionID(); id != "" {
		fmt.Fprintln(w, successStyle.Render("✅ Active conversation"), id)
	} else {
		fmt.Fprintln(w, warningStyle.Render("⚠️  No active conversation"))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, infoStyle.Render("Step 5: Chat service"))
	start := time.Now()
	code, err := a.client.Ping(ctx)
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("❌ Unreachable"), a.client.BaseURL())
		if verbose {
			fmt.Fprintf(w, "   %v\n", err)
		}
		return errServiceUnreachable
	}
	fmt.Fprintln(w, successStyle.Render("✅ Reachable"), fmt.Sprintf("(HTTP %d)", code))
	if verbose {
		fmt.Fprintf(w, "   Round trip: %s\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
