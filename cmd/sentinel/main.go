package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"StockSentinel/internal/events"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/server"
	"StockSentinel/internal/watchlist"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "sentinel",
		Short:         "Technical-indicator alerts for an equity watch-list",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultCfg, "Path to the YAML config file")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchlistCmd())
	rootCmd.AddCommand(subscribersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			s, err := a.scheduler(ctx, nil, a.telegram())
			if err != nil {
				return err
			}
			report, err := s.RunNow(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("run %s: %d records, %d highlighted, %d skipped, %d emailed\n",
				report.RunID, report.Records, report.Highlighted, report.Skipped, report.Emailed)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run on the cron schedule and serve the latest snapshot over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			broker := events.NewBroker(0)
			tg := a.telegram()
			s, err := a.scheduler(ctx, broker, tg)
			if err != nil {
				return err
			}
			if err := s.Register(a.cfg.Schedule.RunCron); err != nil {
				return err
			}
			s.Start()
			defer s.Stop()

			if a.redis != nil {
				l := &events.RedisListener{Client: a.redis, Channel: a.cfg.Events.RedisChannel, Target: broker, Logger: a.logger}
				go func() {
					if err := l.Run(ctx); err != nil {
						a.logger.Error("redis listener stopped", zap.Error(err))
					}
				}()
			}
			if tg != nil {
				go tg.StartPolling(ctx, s.HandleCommand)
				a.logger.Info("telegram polling started")
			}
			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				a.logger.Info("running pipeline on start")
				go s.RunNow(ctx)
			}

			srv := server.New(a.store, s.Watchlist, broker, a.registry, a.cfg.Events.WebhookToken, a.logger).
				WithArtifact(a.cfg.ArtifactPath)
			a.logger.Info("StockSentinel is running", zap.String("cron", a.cfg.Schedule.RunCron))
			return srv.Run(ctx, a.cfg.Server.Addr)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Execute one run immediately")
	return cmd
}

func watchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the stored watch-list",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <csv>",
		Short: "Import symbols from a CSV file with a Symbol column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := (&watchlist.CSVSource{Path: args[0]}).Load(cmd.Context())
			if err != nil {
				return err
			}
			n, err := watchlist.Import(cmd.Context(), a.store, items)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d symbols\n", n)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the watch-list the next run will use",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.watchlistSource().Load(cmd.Context())
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Printf("%-8s %s\n", it.Symbol, it.CompanyName)
			}
			return nil
		},
	})
	return cmd
}

func subscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage digest subscribers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print all subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			entries, err := a.store.List(cmd.Context(), recorder.ListSubscribers)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Println(e.Value)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <email>...",
		Short: "Add subscribers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			for _, addr := range args {
				if err := a.store.Append(cmd.Context(), recorder.ListSubscribers, recorder.Entry{Value: strings.ToLower(addr)}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <email>",
		Short: "Remove a subscriber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()
			return a.store.Remove(cmd.Context(), recorder.ListSubscribers, strings.ToLower(args[0]))
		},
	})
	return cmd
}
