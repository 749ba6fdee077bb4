package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/api"
	"github.com/iksnae/guidechat/internal/auth"
	"github.com/iksnae/guidechat/internal/chat"
	"github.com/iksnae/guidechat/internal/store"
)

const (
	msgLoggedOut     = "You have been logged out."
	msgPleaseLogIn   = "Please log in with 'guidechat login'."
	msgSessionExpiry = "Your session has expired. Please log in again."
)

// app is the object graph shared by every command
type app struct {
	cfg      internal.Config
	store    *store.SQLite
	client   *api.Client
	auth     *auth.Manager
	sessions *chat.Manager
	poller   *chat.Poller
}

// newApp resolves the configuration, opens local state and wires the client,
// credential manager and conversation together.
func newApp() (*app, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if storagePath != "" {
		cfg.Storage = storagePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	internal.LogDebug("Using API %s and state %s", cfg.APIURL, cfg.Storage)

	kv, err := store.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout)
	authMgr := auth.NewManager(kv, client)
	client.SetCredentials(authMgr)

	sessions := chat.NewManager(kv, client)
	poller := chat.NewPoller(sessions, client, chat.Interval(cfg.PollInterval))

	a := &app{
		cfg:      cfg,
		store:    kv,
		client:   client,
		auth:     authMgr,
		sessions: sessions,
		poller:   poller,
	}
	authMgr.Subscribe(auth.ListenerFuncs{
		OnAuthChanged: func(authenticated bool) {
			if authenticated {
				return
			}
			a.poller.CancelAll()
			a.sessions.Reset()
			internal.PrintWarning(msgLoggedOut)
		},
		OnUnauthenticatedAccess: func() {
			internal.PrintInfo(msgPleaseLogIn)
		},
	})
	return a, nil
}

// close stops background polling and releases the store
func (a *app) close() {
	a.poller.Close()
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close state database: %v", err)
	}
}

// requireLogin drops an expired credential and then insists on one
func (a *app) requireLogin() error {
	if err := a.auth.CheckExpiry(); err != nil {
		if errors.Is(err, auth.ErrCredentialExpired) {
			internal.PrintWarning(msgSessionExpiry)
		}
	}
	return a.auth.RequireAuth()
}

// withApp runs fn with a wired app, closing it afterwards
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.close()
	return fn(a)
}

// withSession is withApp for commands that need a logged-in user and the
// hydrated conversation
func withSession(ctx context.Context, fn func(a *app) error) error {
	return withApp(func(a *app) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		if err := a.hydrate(ctx); err != nil {
			return err
		}
		return fn(a)
	})
}

// hydrate loads the stored conversation. A failed load restarts the
// conversation blank and is only reported.
func (a *app) hydrate(ctx context.Context) error {
	if a.sessions.SessionID() == "" {
		return nil
	}
	err := internal.ShowProgress(ctx, "Loading conversation", func() error {
		return a.sessions.Init(ctx)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, chat.ErrSessionNotFound) {
		internal.PrintWarning(a.sessions.Error())
		return nil
	}
	return err
}

// commandContext returns the command's context or a background one
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
