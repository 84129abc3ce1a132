package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/haneul-dev/budgetbook/pkg/api"
	"github.com/haneul-dev/budgetbook/pkg/auth"
	"github.com/haneul-dev/budgetbook/pkg/budget"
	"github.com/haneul-dev/budgetbook/pkg/config"
	"github.com/haneul-dev/budgetbook/pkg/openbanking"
	"github.com/haneul-dev/budgetbook/pkg/query"
)

// app wires the full client stack for one command invocation:
// config → session → gateway → cache → resource queries.
type app struct {
	cfg          *config.Config
	logger       *log.Logger
	session      *auth.FileStore
	cache        *query.Client
	transactions *budget.Queries
	cards        *openbanking.Queries
}

func newApp(cmd *cobra.Command) (*app, error) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    debug,
		ReportTimestamp: true,
		Prefix:          "budgetbook",
		Level:           level,
	})

	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	session := auth.NewFileStore(cfg.SessionPath)
	gateway := api.New(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Tokens:  session,
		Logger:  logger,
		OnUnauthorized: func() {
			logger.Warn("session expired, run 'budgetbook login <token>' to sign in again")
		},
	})

	cache := query.NewClient(query.Options{
		StaleTime: cfg.StaleTime,
		GCTime:    cfg.GCTime,
		Retry:     cfg.Retry,
		Logger:    logger,
	})

	return &app{
		cfg:          cfg,
		logger:       logger,
		session:      session,
		cache:        cache,
		transactions: budget.NewQueries(cache, budget.NewService(gateway), logger),
		cards:        openbanking.NewQueries(cache, openbanking.NewService(gateway), logger),
	}, nil
}

// waitTimeout bounds how long commands wait on store updates: the transport
// timeout, all retries, and some slack.
func (a *app) waitTimeout() time.Duration {
	timeout := a.cfg.APITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return time.Duration(a.cfg.Retry+1)*timeout + 2*time.Second
}

// waitUpdate blocks until the store signals or the deadline passes.
func waitUpdate(updates <-chan struct{}, timeout time.Duration) error {
	select {
	case <-updates:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for data after %s", timeout)
	}
}
