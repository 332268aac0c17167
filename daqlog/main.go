package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/daqlog/pkg/acquire"
	"github.com/itohio/daqlog/pkg/config"
	"github.com/itohio/daqlog/pkg/sink"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagConfig   string
	flagLogLevel string
	flagCount    int
	flagConsole  bool
	flagStorage  bool
	flagWrite    bool
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	rootCmd := &cobra.Command{
		Use:   "daqlog",
		Short: "Fixed-rate two channel ADC logger",
		Long: `daqlog samples two channels of an MCP3xxx converter at a fixed rate,
scales them to engineering units and writes one line per sample to the
console and/or a log file that is flushed after every line.

Use "adc.driver: sim" or "adc.driver: fixed" in the configuration to run
without hardware.`,
		SilenceUsage: true,
		RunE:         run,
	}
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "daqlog.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start acquisition (default)",
		RunE:  run,
	}
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().IntVarP(&flagCount, "count", "n", 0, "Number of samples to log, 0 = until interrupted")
		c.Flags().BoolVar(&flagConsole, "console", true, "Enable the console sink")
		c.Flags().BoolVar(&flagStorage, "storage", false, "Enable the storage sink")
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE:  printConfig,
	}
	configCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "Write the effective configuration to the config file")

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports usable as console",
		RunE:  listPorts,
	}

	rootCmd.AddCommand(runCmd, configCmd, portsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Sampling.Count = flagCount
	}
	if flags.Changed("console") {
		cfg.Sinks.Console = flagConsole
	}
	if flags.Changed("storage") {
		cfg.Sinks.Storage = flagStorage
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	log.Logger = log.Logger.Level(level)

	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		log.Fatal().Err(err).Str("config", flagConfig).Msg("failed to load configuration")
	}

	loop, closer, err := acquire.Setup(cfg, acquire.Env{
		Stdout: os.Stdout,
		Logger: log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initialization failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = loop.Run(ctx)
	if cerr := closer.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("failed to release resources")
	}

	stats := loop.Stats()
	log.Info().
		Int("records", stats.Records).
		Int("read_errors", stats.ReadErrors).
		Int("write_errors", stats.WriteErrors).
		Int("flush_errors", stats.FlushErrors).
		Int("overruns", stats.Overruns).
		Msg("stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("configuration is not usable")
	}

	if flagWrite {
		if err := cfg.Save(flagConfig); err != nil {
			return err
		}
		log.Info().Str("config", flagConfig).Msg("configuration saved")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func listPorts(cmd *cobra.Command, args []string) error {
	ports, err := sink.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		log.Info().Msg("no serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.Description == "" {
			fmt.Fprintln(cmd.OutOrStdout(), p.Name)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, p.Description)
	}
	return nil
}
