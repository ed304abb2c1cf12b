package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/webitel/go-reactor/config"
	"github.com/webitel/go-reactor/internal/monitor"
)

const (
	ServiceName      = "go-reactor"
	ServiceNamespace = "webitel"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

// Run is the process entry point: a urfave/cli app exposing a
// long-running "server" command and a "monitor" terminal-dashboard
// command, the same top-level shape as the teacher's cmd.go.
func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Single-threaded event reactor for an asynchronous messaging stack",
		Commands: []*cli.Command{
			serverCmd(),
			monitorCmd(),
		},
	}

	return app.Run(os.Args)
}

func configFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "config_file",
		Usage: "Path to the configuration file",
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	flags := pflag.NewFlagSet(c.App.Name, pflag.ContinueOnError)
	flags.String("config_file", c.String("config_file"), "Path to the configuration file")

	cfg, _, err := config.Load(flags)
	return cfg, err
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the reactor service",
		Flags:   []cli.Flag{configFileFlag()},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return app.Stop(shutdownCtx)
		},
	}
}

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Attach a terminal dashboard to a running reactor's control plane",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stats_url",
				Usage: "URL of the control server's /stats endpoint",
				Value: "http://localhost:8081/stats",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval",
				Value: time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			fetcher := monitor.NewFetcher(c.String("stats_url"))
			dash := monitor.NewDashboard(fetcher, c.Duration("interval"))
			return dash.Run(c.Context)
		},
	}
}
