package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/config"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database/postgres"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database/sqlite"
)

type cmdGlobal struct {
	flagProfile  string
	flagDSN      string
	flagLogLevel string

	cfg *config.Config
}

func main() {
	globalCmd := cmdGlobal{}

	app := &cobra.Command{
		Use:           "sqlrun",
		Short:         "Execute SQL scripts against PostgreSQL or SQLite",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return globalCmd.init()
		},
	}

	app.PersistentFlags().StringVarP(&globalCmd.flagProfile, "profile", "p", "", "Saved connection profile name")
	app.PersistentFlags().StringVarP(&globalCmd.flagDSN, "dsn", "d", "", "Connection string (postgres://... or a sqlite file path)")
	app.PersistentFlags().StringVar(&globalCmd.flagLogLevel, "log-level", "", "Log level (debug, info, warning, error)")

	runCmd := cmdRun{global: &globalCmd}
	app.AddCommand(runCmd.command())

	profilesCmd := cmdProfiles{global: &globalCmd}
	app.AddCommand(profilesCmd.command())

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (g *cmdGlobal) init() error {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Warn("could not load config, continuing with defaults")
		cfg = &config.Config{}
	}
	g.cfg = cfg

	level := g.flagLogLevel
	if level == "" {
		level = cfg.Preferences.LogLevel
	}
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q", level)
		}
		logrus.SetLevel(parsed)
	}
	logrus.SetOutput(os.Stderr)

	return nil
}

// profile resolves the connection profile from the --dsn flag, the --profile
// flag, or the configured default, in that order.
func (g *cmdGlobal) profile() (config.Profile, error) {
	if g.flagDSN != "" {
		return config.ParseDSN(g.flagDSN)
	}

	if g.flagProfile != "" {
		for _, p := range g.cfg.Profiles {
			if p.Name == g.flagProfile {
				return p, nil
			}
		}
		return config.Profile{}, fmt.Errorf("profile %q not found", g.flagProfile)
	}

	if p := config.DefaultProfile(g.cfg); p != nil {
		return *p, nil
	}
	return config.Profile{}, fmt.Errorf("no connection given, use --dsn or --profile")
}

// connect opens a database handle for the resolved profile.
func (g *cmdGlobal) connect(ctx context.Context) (database.Handle, config.Profile, error) {
	p, err := g.profile()
	if err != nil {
		return nil, config.Profile{}, err
	}

	switch p.Driver {
	case "sqlite":
		h, err := sqlite.Connect(ctx, p.Path)
		if err != nil {
			return nil, config.Profile{}, fmt.Errorf("open %s: %w", p.Path, err)
		}
		return h, p, nil
	case "postgres", "":
		pw, err := p.ResolvePassword()
		if err != nil {
			return nil, config.Profile{}, err
		}
		p.Password = pw
		h, err := postgres.Connect(ctx, p.DSN())
		if err != nil {
			return nil, config.Profile{}, fmt.Errorf("connect %s: %w", p.DisplayString(), err)
		}
		return h, p, nil
	default:
		return nil, config.Profile{}, fmt.Errorf("unsupported driver %q", p.Driver)
	}
}
