package main

import (
	"errors"
	"os"
	"path"

	"github.com/limaJavier/allocation/internal/config"
	"github.com/limaJavier/allocation/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitError     = 1
	exitCancelled = 2
)

var errCancelled = errors.New("allocation cancelled")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errCancelled) {
			os.Exit(exitCancelled)
		}
		os.Exit(exitError)
	}
}

// settings is shared by every subcommand through persistent flags
type settings struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:   "allocation",
		Short: "Assign pending residents to free dormitory beds",
		Long: `allocation places pending residents into free beds of partially occupied rooms,
maximizing lifestyle compatibility between roommates while honouring hard rules
(gender, smoking, sleep schedule).`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&s.configPath, "config", defaultConfigPath(), "Path to a YAML config file; ALLOCATION_* environment variables override it")

	rootCmd.AddCommand(newAllocateCmd(s))
	rootCmd.AddCommand(newAlgorithmsCmd())
	rootCmd.AddCommand(newPreviewCmd(s))
	return rootCmd
}

// load reads the configuration and builds the process logger from it
func (s *settings) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// defaultConfigPath returns config.yaml beside the executable when it exists
func defaultConfigPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	configPath := path.Join(path.Dir(execPath), "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		return ""
	}
	return configPath
}
