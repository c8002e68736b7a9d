package commands

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zenxianie/parkctl/internal/api"
	"github.com/zenxianie/parkctl/internal/auth"
	"github.com/zenxianie/parkctl/internal/config"
	"github.com/zenxianie/parkctl/internal/session"
)

type Globals struct {
	Config  config.Config
	Debug   bool
	Version string
	Logger  zerolog.Logger
}

// resolveRole picks the role for a command: the command's --role flag when
// set, the configured default otherwise.
func resolveRole(flag string, globals *Globals) (session.Role, error) {
	value := flag
	if value == "" {
		value = globals.Config.Role
	}

	role := session.Role(value)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q (want user or admin)", value)
	}
	return role, nil
}

// newClient wires the file-backed session store and the HTTP session
// client for one role.
func newClient(globals *Globals, role session.Role) (*api.Client, *session.Store, error) {
	backend, err := session.NewFileBackend("")
	if err != nil {
		return nil, nil, err
	}

	store, err := session.NewStore(backend)
	if err != nil {
		return nil, nil, err
	}

	client := api.New(api.Config{
		BaseURL:  globals.Config.ServerURL,
		Role:     role,
		CacheDir: globals.Config.CacheDir,
		Logger:   globals.Logger,
	}, store)

	return client, store, nil
}

// newAuthContext composes the per-role auth context with a navigator that
// just reports route changes on the terminal.
func newAuthContext(globals *Globals, role session.Role) (*auth.Context, *api.Client, error) {
	client, store, err := newClient(globals, role)
	if err != nil {
		return nil, nil, err
	}

	navigate := func(route string) {
		globals.Logger.Debug().Str("route", route).Msg("navigate")
	}

	return auth.NewContext(role, store, client, navigate, globals.Logger), client, nil
}
