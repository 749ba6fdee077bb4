package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iksnae/guidechat/internal"
)

var (
	username      string
	passwordStdin bool
	loginAfter    bool
)

var errMissingCredentials = errors.New("username and password are required")

// loginCmd exchanges a username and password for a credential
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the chat service",
	Long: `Log in with your username and password. The password is prompted for
without echo, or read from standard input with --password-stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		user, pass, err := promptCredentials(cmd, in)
		if err != nil {
			return err
		}

		return withApp(func(a *app) error {
			ctx := commandContext(cmd)
			err := internal.ShowProgress(ctx, "Logging in", func() error {
				return a.auth.Login(ctx, user, pass)
			})
			if err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Logged in as %s.", user))
			return nil
		})
	},
}

// registerCmd creates an account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		user, pass, err := promptCredentials(cmd, in)
		if err != nil {
			return err
		}

		return withApp(func(a *app) error {
			ctx := commandContext(cmd)
			steps := []internal.ProgressStep{
				{Message: "Registering", Fn: func() error { return a.auth.Register(ctx, user, pass) }},
			}
			if loginAfter {
				steps = append(steps, internal.ProgressStep{
					Message: "Logging in",
					Fn:      func() error { return a.auth.Login(ctx, user, pass) },
				})
			}

			if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
				// the manager's message is the one to show
				if msg := a.auth.LastError(); msg != "" {
					return errors.New(msg)
				}
				return err
			}

			if loginAfter {
				internal.PrintSuccess(fmt.Sprintf("Registered and logged in as %s.", user))
			} else {
				internal.PrintSuccess(a.auth.Notice())
			}
			return nil
		})
	},
}

// logoutCmd forgets the credential and the active conversation
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the current conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if !a.auth.IsAuthenticated() {
				internal.PrintInfo("Not logged in.")
			}
			a.auth.Logout()
			return nil
		})
	},
}

// promptCredentials reads the username (unless given by flag) and password
func promptCredentials(cmd *cobra.Command, in *bufio.Reader) (string, string, error) {
	user := strings.TrimSpace(username)
	if user == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
		line, err := readLine(in)
		if err != nil {
			return "", "", err
		}
		user = strings.TrimSpace(line)
	}

	pass, err := readPassword(cmd, in)
	if err != nil {
		return "", "", err
	}
	if user == "" || pass == "" {
		return "", "", errMissingCredentials
	}
	return user, pass, nil
}

// readPassword prompts without echo on a terminal, otherwise reads one line
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if !passwordStdin {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			pw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return string(pw), nil
		}
	}
	line, err := readLine(in)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}

// readLine returns the next line without its terminator
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&username, "username", "u", "", "Account username (prompted when omitted)")
		c.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from standard input")
	}
	registerCmd.Flags().BoolVar(&loginAfter, "login", false, "Log in after registering")
}
