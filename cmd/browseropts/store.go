package main

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-browser-opts/browser"
	"github.com/goliatone/go-browser-opts/pkg/state"
	"github.com/goliatone/go-browser-opts/pkg/state/redisstore"
)

type storeFlags struct {
	redisURL string
	prefix   string
	project  string
}

func (s *storeFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&s.redisURL, "redis", "", "overlay browser and instance snapshots stored at this Redis URL")
	flags.StringVar(&s.prefix, "redis-prefix", "", "key prefix of stored snapshots (default browseropts)")
	flags.StringVar(&s.project, "project", "", "project the stored snapshots belong to (required with --redis)")
}

// openLayerStore connects to the snapshot store behind --redis.
var openLayerStore = func(url, prefix string, logger *slog.Logger) (state.Store[browser.Settings], func() error, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, &exitError{code: 2, message: fmt.Sprintf("invalid --redis %q: %v", url, err)}
	}
	client := redis.NewClient(options)
	store := redisstore.New[browser.Settings](client, redisstore.Config{Prefix: prefix}, logger)
	return store, client.Close, nil
}

// options returns the layer source option and a close func that is always
// safe to call.
func (s *storeFlags) options(env *cliEnv) ([]browser.ResolverOption, func() error, error) {
	noop := func() error { return nil }
	if s.redisURL == "" {
		if s.project != "" {
			return nil, noop, &exitError{code: 2, message: "--project needs --redis"}
		}
		return nil, noop, nil
	}
	if s.project == "" {
		return nil, noop, &exitError{code: 2, message: "--redis needs --project"}
	}
	store, closeStore, err := openLayerStore(s.redisURL, s.prefix, env.logger)
	if err != nil {
		return nil, noop, err
	}
	return []browser.ResolverOption{browser.WithLayerSource(store, s.project)}, closeStore, nil
}
