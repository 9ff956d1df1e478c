package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hankyul/CommitteeGo/config"
	"github.com/hankyul/CommitteeGo/internal/pipeline"
)

const version = "1.0.0"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "committeego",
		Short: "CommitteeGo - daily AI investment committee",
		Long: `CommitteeGo runs a once-daily investment committee: it assembles a market
snapshot from multiple data sources, collects directional stances from seven
analysis agents, reduces them to a single validated consensus, and delivers a
Korean morning brief.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cfg, time.Now().Format("2006-01-02"), true)
		},
	}

	rootCmd.AddCommand(newRunCmd(cfg))
	rootCmd.AddCommand(newSendCmd(cfg))
	rootCmd.AddCommand(newScheduleCmd(cfg))
	rootCmd.AddCommand(newStatusCmd(cfg))
	rootCmd.AddCommand(newConfigureCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the committee pipeline for one market date",
		Long: `Run one full committee cycle: snapshot, stances, consensus, validation,
and artifact persistence under runs/YYYY-MM-DD/.
Example: committeego run --date=2025-01-15 --send`,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			send, _ := cmd.Flags().GetBool("send")
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			return runPipeline(cfg, date, send)
		},
	}

	cmd.Flags().String("date", "", "Market date in YYYY-MM-DD format (today if not provided)")
	cmd.Flags().Bool("send", false, "Deliver the report after a successful run")

	return cmd
}

func newSendCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Deliver a previously generated report",
		Long:  "Send the stored report for a market date to the configured Telegram chats (or stdout when unconfigured).",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			p, err := pipeline.New(cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer p.Close()
			return p.SendReport(context.Background(), date)
		},
	}

	cmd.Flags().String("date", "", "Market date in YYYY-MM-DD format (today if not provided)")

	return cmd
}

func newScheduleCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured nightly schedule",
		Long: `Start a long-lived scheduler that runs the full pipeline and delivers the
report on the configured cron spec (default: 22:00 KST on weekdays).
Config file edits are picked up between runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CommitteeGo v%s\n", version)
			fmt.Println("Daily AI investment committee pipeline")
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("configuration is valid"))
			return nil
		},
	})

	return configCmd
}

func runPipeline(cfg *config.Config, date string, send bool) error {
	logger := newLogger(cfg)
	defer logger.Sync() //nolint:errcheck

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	var outcome *pipeline.Outcome
	if send {
		outcome, err = p.RunAndSend(ctx, date)
	} else {
		outcome, err = p.Run(ctx, date)
	}
	if err != nil {
		return err
	}

	printOutcome(outcome)
	return nil
}

func runScheduler(cfg *config.Config) error {
	logger := newLogger(cfg)
	defer logger.Sync() //nolint:errcheck

	manager, err := config.NewManager(config.WithInitialConfig(cfg))
	if err != nil {
		return fmt.Errorf("config manager: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := manager.Watch(ctx, func(updated config.Config) {
		logger.Info("configuration reloaded", zap.String("path", manager.Path()))
	}); err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
	}

	scheduler := cron.New(cron.WithSeconds())
	_, err = scheduler.AddFunc(cfg.CronSpec, func() {
		current := manager.Get()
		date := time.Now().Format("2006-01-02")
		logger.Info("scheduled run starting", zap.String("market_date", date))

		p, err := pipeline.New(&current, logger)
		if err != nil {
			logger.Error("scheduled run setup failed", zap.Error(err))
			return
		}
		defer p.Close()

		if _, err := p.RunAndSend(context.Background(), date); err != nil {
			logger.Error("scheduled run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", cfg.CronSpec, err)
	}

	scheduler.Start()
	defer scheduler.Stop()
	fmt.Println(infoStyle.Render(fmt.Sprintf("scheduler started (cron: %s), press Ctrl+C to stop", cfg.CronSpec)))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println(infoStyle.Render("scheduler stopped"))
	return nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
