package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:          "benchrun",
	SilenceUsage: true,
}

var (
	workdir    = "." // root of the main.yaml file to load configurations from
	mainConfig = ""
)

func init() {
	viper.SetEnvPrefix("BENCHRUN")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().StringVarP(&workdir, "workdir", "w", ".", "Root directory to load configuration files from")
	rootCmd.PersistentFlags().StringVarP(&mainConfig, "main", "m", "", "Path to the main configuration file (defaults to main.yaml)")
}

func Execute() error {
	rootCmd.AddCommand(matrixCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(dispatchCmd())
	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(aggregateCmd())
	rootCmd.AddCommand(compareCmd())
	return rootCmd.Execute()
}

func readConfigFile[T any](selector string) (cfg T, err error) {
	if mainConfig == "" {
		rootDir := workdir
		if rootDir == "" {
			rootDir = "."
		}

		for _, file := range []string{"main.yaml", "main.yml"} {
			fullPath := filepath.Join(rootDir, file)
			if _, err := os.Stat(fullPath); err == nil {
				mainConfig = fullPath
				break
			}
		}
	}

	var in *os.File
	if mainConfig == "" || mainConfig == "-" {
		in = os.Stdin
	} else {
		in, err = os.Open(mainConfig)
		if err != nil {
			return cfg, fmt.Errorf("open config file: %w", err)
		}
		defer in.Close()
	}

	if selector != "" {
		var path *yaml.Path
		path, err = yaml.PathString(fmt.Sprintf("$.%s", selector))
		if err != nil {
			panic(err)
		}

		err = path.Read(in, &cfg)
	} else {
		err = yaml.NewDecoder(in).Decode(&cfg)
	}

	if err != nil {
		return cfg, fmt.Errorf("decode yaml config file: %w", err)
	}
	return cfg, nil
}

// readOptionalConfig reads a section that may legitimately be absent, such
// as core scenarios. Unlike readConfigFile it never falls back to stdin:
// without a config file the section is simply not there.
func readOptionalConfig[T any](selector string) (cfg T, ok bool) {
	if mainConfig == "" {
		found := false
		for _, file := range []string{"main.yaml", "main.yml"} {
			if _, err := os.Stat(filepath.Join(workdir, file)); err == nil {
				found = true
				break
			}
		}
		if !found {
			return cfg, false
		}
	}
	cfg, err := readConfigFile[T](selector)
	return cfg, err == nil
}
