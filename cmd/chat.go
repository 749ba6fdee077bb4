package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/auth"
	"github.com/iksnae/guidechat/internal/chat"
)

var message string

var errAnswerFailed = errors.New("no answer was generated")

const replHelp = `Type a message and press Enter to send it.
  /new      start a new conversation
  /history  show the conversation so far
  /help     show this help
  /quit     leave`

// chatCmd sends messages and prints the answers
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the guide assistant",
	Long: `Send a message and wait for the answer.

With -m the message is sent once and the command exits when the answer
arrives. Without it an interactive prompt reads messages line by line.
The conversation continues the active session; use 'guidechat new' or /new
to start over.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		return withSession(ctx, func(a *app) error {
			p := newPrinter(cmd.OutOrStdout())
			if strings.TrimSpace(message) != "" {
				return sendAndWait(ctx, a, p, message)
			}
			return repl(ctx, a, p, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

// sendAndWait submits text and blocks until its placeholder resolves
func sendAndWait(ctx context.Context, a *app, p *printer, text string) error {
	task, err := a.poller.Send(ctx, text)
	if err != nil {
		if errors.Is(err, chat.ErrSkipped) {
			internal.LogDebug("Send skipped: %v", err)
			return nil
		}
		return errors.New(chat.ErrorText(err))
	}

	var outcome chat.Outcome
	err = internal.ShowProgress(ctx, "Waiting for a response", func() error {
		var waitErr error
		outcome, waitErr = task.Wait(ctx)
		return waitErr
	})
	// err only reports an interrupted wait; the outcome carries the rest
	if err != nil {
		task.Cancel()
		return err
	}

	switch outcome {
	case chat.OutcomeCancelled:
		if !a.auth.IsAuthenticated() {
			return auth.ErrUnauthenticated
		}
		return context.Canceled
	case chat.OutcomeSucceeded:
		p.answer(placeholder(a, task))
		return nil
	default:
		p.answer(placeholder(a, task))
		return errAnswerFailed
	}
}

func placeholder(a *app, task *chat.Task) chat.Message {
	for _, msg := range a.sessions.Messages() {
		if msg.ID == task.PlaceholderID {
			return msg
		}
	}
	_, answer, _ := task.Result()
	return chat.Message{ID: task.PlaceholderID, Role: chat.RoleAssistant, Content: answer}
}

// repl reads messages and slash commands until /quit, EOF or interrupt
func repl(ctx context.Context, a *app, p *printer, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, replHelp)
	fmt.Fprintln(out)

	// Scan cannot be interrupted, so once repl returns this goroutine stays
	// blocked until in is closed. The process exits right after.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, replHelp)
			continue
		case "/history":
			p.conversation(a.sessions.Snapshot(), 0)
			continue
		case "/new":
			if _, err := a.sessions.StartNew(); err != nil {
				internal.PrintWarning("The new conversation will not be remembered: " + err.Error())
			}
			internal.PrintSuccess("Started a new conversation.")
			continue
		}

		if err := a.requireLogin(); err != nil {
			return err
		}
		err := sendAndWait(ctx, a, p, line)
		switch {
		case err == nil, errors.Is(err, errAnswerFailed):
		case errors.Is(err, auth.ErrUnauthenticated):
			return err
		case errors.Is(err, context.Canceled):
			if ctx.Err() != nil {
				fmt.Fprintln(out)
				return nil
			}
			internal.PrintWarning("The request was cancelled.")
		default:
			internal.PrintError(err.Error())
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&message, "message", "m", "", "Send a single message and print the answer")
}
