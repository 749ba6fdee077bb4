package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/store"
	"github.com/iksnae/guidechat/testutil"
)

// cli runs commands against a fake service with isolated local state
type cli struct {
	t     *testing.T
	srv   *testutil.FakeAPI
	state string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GUIDECHAT_API_URL", "")
	t.Setenv("GUIDECHAT_STORAGE", "")
	t.Setenv("GUIDECHAT_REQUEST_TIMEOUT", "")
	t.Setenv("GUIDECHAT_POLL_INTERVAL", "1ms")

	return &cli{
		t:     t,
		srv:   testutil.NewFakeAPI(t),
		state: filepath.Join(home, "state.db"),
	}
}

// result is the captured output of one invocation
type result struct {
	out    string // command output
	notice string // Print* helpers on stdout
	errs   string // Print* helpers on stderr
	err    error
}

func resetFlags() {
	verbose = false
	configPath = ""
	apiURL = ""
	storagePath = ""
	message = ""
	format = "jsonl"
	outputPath = ""
	toStdout = false
	username = ""
	passwordStdin = false
	loginAfter = false
	limit = 0

	// cobra keeps --help and --version set between executions
	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		for _, name := range []string{"help", "version"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
			}
		}
	}
}

// run executes args with stdin, pointing the client at the fake service
func (c *cli) run(stdin string, args ...string) result {
	c.t.Helper()
	resetFlags()

	var out, notice, errs bytes.Buffer
	internal.SetPrintOutput(&notice, &errs)
	defer internal.SetPrintOutput(nil, nil)

	full := append([]string{"--api-url", c.srv.URL, "--storage", c.state}, args...)
	rootCmd.SetArgs(full)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()
	return result{out: out.String(), notice: notice.String(), errs: errs.String(), err: err}
}

// seed writes key/value pairs into the state database
func (c *cli) seed(pairs ...string) {
	c.t.Helper()
	kv, err := store.Open(c.state)
	require.NoError(c.t, err)
	defer kv.Close()
	for i := 0; i+1 < len(pairs); i += 2 {
		require.NoError(c.t, kv.Set(pairs[i], pairs[i+1]))
	}
}

// stored reads a key from the state database
func (c *cli) stored(key string) (string, bool) {
	c.t.Helper()
	kv, err := store.Open(c.state)
	require.NoError(c.t, err)
	defer kv.Close()
	v, ok, err := kv.Get(key)
	require.NoError(c.t, err)
	return v, ok
}

// loggedIn seeds a valid credential and returns it
func (c *cli) loggedIn() string {
	c.t.Helper()
	token := testutil.ValidToken(c.t)
	c.seed(store.KeyAccessToken, token)
	return token
}
