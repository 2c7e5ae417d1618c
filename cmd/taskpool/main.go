// Command taskpool boots the interactive task-execution server: the
// worker pool, the deadlock-detecting controller, and the stdin REPL
// described by spec.md §6.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
	"github.com/bshatskih/Thread-Pool/internal/config"
	"github.com/bshatskih/Thread-Pool/internal/console"
	"github.com/bshatskih/Thread-Pool/internal/controller"
	"github.com/bshatskih/Thread-Pool/internal/metrics"
	"github.com/bshatskih/Thread-Pool/internal/pool"
	"github.com/bshatskih/Thread-Pool/internal/repl"
)

// version is set by the release build via -ldflags; "dev" otherwise.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "taskpool",
		Short: "Interactive task-execution server",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(versionCmd())
	root.AddCommand(workersCmd(&configPath))
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the pool, controller, and REPL on standard input",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("taskpool: build logger: %w", err)
			}
			defer logger.Sync()

			al, err := auditlog.Open(cfg.AuditLogPath)
			if err != nil {
				return err
			}
			defer al.Close()

			cons := console.New()
			coll := metrics.NewCollector()

			if cfg.MetricsEnabled {
				go func() {
					if err := coll.StartServer(cfg.MetricsPort); err != nil {
						logger.Error("metrics server stopped", zap.Error(err))
					}
				}()
			}

			p := pool.New(pool.Config{
				InitialWorkers: cfg.InitialWorkers,
				MaxWorkers:     cfg.MaxWorkers,
			}, logger, al, cons, coll)

			ctl := controller.New(p, cfg.ControllerInterval, al, logger, coll)
			ctl.Start()
			defer ctl.Stop()

			r := repl.New(cmd.InOrStdin(), cmd.OutOrStdout(), cons, p, logger)
			return r.Run()
		},
	}
}

func workersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "Start a pool from the config and print its worker roster table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			al, err := auditlog.Open(cfg.AuditLogPath)
			if err != nil {
				return err
			}
			defer al.Close()

			cons := console.New()
			coll := metrics.NewCollector()
			p := pool.New(pool.Config{
				InitialWorkers: cfg.InitialWorkers,
				MaxWorkers:     cfg.MaxWorkers,
			}, logger, al, cons, coll)

			time.Sleep(10 * time.Millisecond)

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Worker", "Running", "Waiting"})
			for _, w := range p.Roster() {
				table.Append([]string{
					fmt.Sprintf("%d", w.ID()),
					fmt.Sprintf("%v", w.Running()),
					fmt.Sprintf("%v", w.Waiting()),
				})
			}
			table.Render()

			p.Shutdown()
			return nil
		},
	}
}
