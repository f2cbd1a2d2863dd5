package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"cryptoscout/cmd/cryptoscout/globals"
	"cryptoscout/lib/telemetry"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	profileMode string

	profiler interface{ Stop() }
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and request dumps.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", globals.DefaultConfigPath, "The json5 config to read.")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "Write a pprof profile of the command: cpu or mem.")
}

func startProfile(mode string) (interface{ Stop() }, error) {
	switch mode {
	case "":
		return nil, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	}
	return nil, fmt.Errorf("unknown profile mode %q", mode)
}

var rootCmd = &cobra.Command{
	Use:   "cryptoscout",
	Short: "cryptoscout harvests the coinmarketcap listing and filters assets by market cap / FDV ratio.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		p, err := startProfile(profileMode)
		if err != nil {
			return err
		}
		profiler = p

		cfg, err := globals.ReadConfig(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		otel, err := telemetry.SetupFromEnv(cmd.Context(), "cryptoscout")
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		if verbose {
			telemetry.InstrumentPerfStats(cmd.Context(), 5*time.Second)
		}

		cmd.SetContext(globals.Set(cmd.Context(), globals.NewValue(cfg, verbose, otel)))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if profiler != nil {
			profiler.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return globals.Get(cmd.Context()).Shutdown(ctx)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
