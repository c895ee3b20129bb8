package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/insightsec/harvestr/internal/config"
	"github.com/insightsec/harvestr/internal/controller"
	"github.com/insightsec/harvestr/internal/eventlog"
	elfactory "github.com/insightsec/harvestr/internal/eventlog/factory"
	"github.com/insightsec/harvestr/internal/launcher"
	"github.com/insightsec/harvestr/internal/logger"
	"github.com/insightsec/harvestr/internal/metrics"
	regfactory "github.com/insightsec/harvestr/internal/registry/factory"
	"github.com/insightsec/harvestr/internal/server"
)

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// LatestIOCFlags holds flags for the latest-ioc command.
type LatestIOCFlags struct {
	Type string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "harvestr",
		Short: "Deploy and track a fleet of credentialed monitor processes",
	}
	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", config.DefaultPath, "path to harvestr.toml")

	root.AddCommand(createLaunchCommand(globalFlags))
	root.AddCommand(createStatusCommand(globalFlags))
	root.AddCommand(createLatestIOCCommand(globalFlags))
	return root
}

func createLaunchCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <token-file>",
		Short: "Launch one monitor process per token and stay resident",
		Long: `Launch reads a newline-delimited token file, registers each worker in the
fleet registry, spawns one monitor process per token and then stays in the
foreground until interrupted. Blank lines in the token file are skipped.

Example:
  harvestr launch tokens.txt --config harvestr.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(globalFlags.ConfigPath, args[0])
		},
	}
}

func runLaunch(configPath, tokenFile string) error {
	fmt.Print(headerArt)
	fmt.Println("Initializing harvestr...")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level)
	log.Info("configuration OK", "path", configPath)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	store, err := regfactory.NewFromDSN(cfg.Registry.DSN)
	if err != nil {
		return fmt.Errorf("could not initialize registry: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("could not initialize registry: %w", err)
	}
	log.Info("registry connection OK", "dsn", cfg.Registry.DSN)

	sink, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	ln := &launcher.ExecLauncher{
		Command: cfg.Launcher.Command,
		Args:    cfg.Launcher.Args,
		WorkDir: cfg.Launcher.WorkDir,
		Env: []string{
			"HARVESTR_API_ID=" + strconv.Itoa(cfg.Telegram.APIID),
			"HARVESTR_API_HASH=" + cfg.Telegram.APIHash,
		},
		Log: cfg.Log,
	}

	var srv *http.Server
	if cfg.Server.Enabled {
		reader := eventlog.NewReader(cfg.EventLog.Path)
		srv, err = server.NewServer(cfg.Server.Listen, "", store, reader)
		if err != nil {
			return err
		}
		log.Info("status API listening", "addr", cfg.Server.Listen)
	}

	ctrl := controller.New(store, sink, ln, controller.Options{
		Pace:           cfg.Launcher.Pace,
		KillOnShutdown: cfg.Launcher.KillOnShutdown,
	})

	res, err := ctrl.RunSession(ctx, tokenFile)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			shutdownServer(srv)
			return nil
		}
		shutdownServer(srv)
		return err
	}

	fmt.Print(completionMessage)
	fmt.Printf("\nSuccessfully launched %d out of %d harvesters.\n\n", res.Launched, res.Total)

	ctrl.Wait(ctx, res)
	shutdownServer(srv)
	return nil
}

// buildSinks combines the mandatory JSONL file sink with any extra DSNs.
func buildSinks(cfg *config.Config) (eventlog.Sink, func(), error) {
	fileSink, err := eventlog.NewFileSink(cfg.EventLog.Path)
	if err != nil {
		return nil, nil, err
	}
	sinks := eventlog.MultiSink{fileSink}
	var closers []func() error
	for _, dsn := range cfg.EventLog.Sinks {
		s, err := elfactory.NewSinkFromDSN(dsn)
		if err != nil {
			for _, c := range closers {
				_ = c()
			}
			return nil, nil, fmt.Errorf("event sink %q: %w", dsn, err)
		}
		sinks = append(sinks, s)
		if c, ok := s.(interface{ Close() error }); ok {
			closers = append(closers, c.Close)
		}
	}
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	return sinks, closeAll, nil
}

func shutdownServer(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func createStatusCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the registered fleet from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(globalFlags.ConfigPath)
			if err != nil {
				return err
			}
			store, err := regfactory.NewFromDSN(cfg.Registry.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			recs, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				cmd.Println("no workers registered")
				return nil
			}
			for _, r := range recs {
				cmd.Printf("%s\t%s\tlast_seen=%s\tevents=%d\n",
					r.BotID, r.Status, r.LastSeen.UTC().Format(time.RFC3339), r.EventsCollected)
			}
			return nil
		},
	}
}

func createLatestIOCCommand(globalFlags *GlobalFlags) *cobra.Command {
	flags := &LatestIOCFlags{}
	cmd := &cobra.Command{
		Use:   "latest-ioc",
		Short: "Print the most recent indicator from the event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(globalFlags.ConfigPath)
			if err != nil {
				return err
			}
			value, err := eventlog.NewReader(cfg.EventLog.Path).LatestIOC(flags.Type)
			if err != nil {
				return err
			}
			cmd.Println(value)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Type, "type", "phishing_url", "indicator type to look for")
	return cmd
}
