package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/tui"
)

var (
	configFile string
	verbose    bool
	preset     string

	logger = zap.NewNop()
)

// main registers the commands and launches the explorer when no
// subcommand is given.
func main() {
	if l, err := zap.NewProduction(); err == nil {
		logger = l
	}

	rootCmd := &cobra.Command{
		Use:           "popdyn",
		Short:         "population dynamics and epidemic models",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry("", "")
			if err != nil {
				return err
			}
			return tui.Run(reg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry("", "")
			if err != nil {
				return err
			}
			return tui.Run(reg)
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				cmd.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			cmd.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				cmd.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and their default parameters",
		RunE:  listModels,
	}

	rootCmd.AddCommand(
		newSolveCmd(), newAnalyzeCmd(), newCompareCmd(), newFieldCmd(), newFitCmd(), newSweepCmd(),
		newBatchCmd(), newMonteCarloCmd(), newServeCmd(),
		tuiCmd, presetsCmd, modelsCmd,
	)

	err := rootCmd.Execute()
	if err != nil {
		logger.Error("command failed", zap.String("command", commandName(rootCmd)), zap.Error(err))
		rootCmd.PrintErrln("error:", err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func commandName(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return root.Name()
	}
	return cmd.CommandPath()
}

// loadConfig starts from the defaults, replaces the model section with the
// preset when one is named, then overlays --config.
func loadConfig(model, presetName string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if presetName != "" {
		p := config.GetPreset(cfg, model, presetName)
		if p == nil {
			return nil, experiment.UnknownPreset(model, presetName, config.ListPresets(model))
		}
		cfg = p
	}
	if configFile != "" {
		if err := config.LoadInto(cfg, configFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func registry(model, presetName string) (*experiment.Registry, error) {
	cfg, err := loadConfig(model, presetName)
	if err != nil {
		return nil, err
	}
	return experiment.NewRegistry(cfg), nil
}

func listModels(cmd *cobra.Command, args []string) error {
	reg, err := registry("", "")
	if err != nil {
		return err
	}
	for _, name := range reg.ListModels() {
		req, err := reg.New(name)
		if err != nil {
			return err
		}
		cmd.Printf("%s\n", name)
		params := req.GetParams()
		for _, p := range sortedKeys(params) {
			cmd.Printf("  %-12s %g\n", p, params[p])
		}
	}
	f := reg.NewField().Spec()
	cmd.Printf("%s\n  %-12s %s\n  %-12s %s\n", experiment.FieldModel, "expr_dx", f.DX, "expr_dy", f.DY)
	return nil
}
