package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCAP2/battlesim/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const appName = "battlesim"

type options struct {
	configDir  string
	rosterPath string
	armies     int
	squads     int
	units      int
	strategies []string
}

// roster returns the roster file when one is given, otherwise a uniform
// roster built from the count flags.
func (o *options) roster() (*config.Roster, error) {
	if o.rosterPath != "" {
		return config.LoadRoster(o.rosterPath)
	}
	r := config.UniformRoster(o.armies, o.squads, o.units, o.strategies)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// flagKeys maps CLI flags onto the config keys they override.
var flagKeys = map[string]string{
	"seed":              "battle.seed",
	"timeout":           "battle.timeout",
	"resolution":        "battle.resolution",
	"time-scale":        "battle.timeScale",
	"damage-multiplier": "battle.damageMultiplier",
	"tick":              "battle.tickInterval",
	"storage":           "storage.type",
	"log-level":         "logLevel",
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Concurrent squad battle simulator",
		Long: `Runs a battle between armies of squads. Every squad fights in its own
goroutine, picks targets by its army's strategy and attacks whenever its
units have recharged. Events are recorded by the configured storage backend
and a summary is printed when one army is left standing.`,
		Version:      fmt.Sprintf("%s (built %s)", Version, BuildDate),
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			for flag, key := range flagKeys {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return fmt.Errorf("binding --%s: %w", flag, err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configDir, "config", "c", ".", "directory containing "+config.FileName)
	f.StringVarP(&opts.rosterPath, "roster", "r", "", "YAML roster file, overrides the count flags")
	f.IntVar(&opts.armies, "armies", 2, "number of armies")
	f.IntVar(&opts.squads, "squads", 2, "squads per army")
	f.IntVar(&opts.units, "units", 5, "units per squad")
	f.StringSliceVar(&opts.strategies, "strategy", nil, "strategy per army: strongest|weakest|random or 1|2|3")
	f.Int64("seed", 0, "random seed, 0 picks one from the clock")
	f.Duration("timeout", 0, "stop the battle after this long, 0 for no limit")
	f.String("resolution", "concurrent", "attack resolution: concurrent|serialized")
	f.Float64("time-scale", 1, "divides tick and recharge delays")
	f.Float64("damage-multiplier", 1, "scales damage of successful attacks")
	f.Duration("tick", 0, "squad polling interval before scaling")
	f.String("storage", "memory", "storage backend: memory|sqlite|postgres|none")
	f.String("log-level", "info", "log level")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
