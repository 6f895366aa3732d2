package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/unklstewy/opensky/internal/logging"
	"github.com/unklstewy/opensky/pkg/config"
	"github.com/unklstewy/opensky/pkg/opensky"
)

var (
	// Global flags
	configPath string
	username   string
	password   string
	logLevel   string
	timeout    time.Duration
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "opensky",
	Short: "Query the OpenSky Network live and historical flight data API",
	Long: `A command line client for the OpenSky Network REST API.

Anonymous access is limited to the most recent state vectors. Credentials
can be given with --username/--password, in the config file, or in the
OPENSKY_USERNAME and OPENSKY_PASSWORD environment variables.

Times accept Unix seconds, RFC 3339 ("2021-01-01T12:00:00Z"), a date
("2021-01-01"), "now", or an offset from now ("-2h", "-30m").`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.json", "Path to configuration file (.json or .yaml)")
	RootCmd.PersistentFlags().StringVar(&username, "username", "", "OpenSky account username")
	RootCmd.PersistentFlags().StringVar(&password, "password", "", "OpenSky account password")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall time limit for a command")
}

// session holds what every subcommand needs.
type session struct {
	cfg    *config.Config
	client *opensky.Client
	log    *logrus.Logger
	out    io.Writer
}

// newSession loads configuration, applies flag overrides and builds a client.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if username != "" || password != "" {
		cfg.OpenSky.Username = username
		cfg.OpenSky.Password = password
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	clientCfg := cfg.OpenSky.ClientConfig()
	clientCfg.Logger = log
	client, err := opensky.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, client: client, log: log, out: cmd.OutOrStdout()}, nil
}

// commandContext bounds a command by the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
