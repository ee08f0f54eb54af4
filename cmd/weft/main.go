// Command weft inspects and serves weft applications.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-go/weft/internal/config"
	"github.com/vango-go/weft/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err, isTerminal(os.Stderr))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "weft",
		Short: "Keyed virtual-node runtime tooling",
		Long: `weft diffs virtual-node trees and serves weft applications over
WebSockets.

Trees are described in YAML; see 'weft diff --help' for the format.
Settings are read from weft.yaml in the working directory or a parent,
or from the file named by --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to weft.yaml")

	load := func() (*config.Config, error) {
		return loadConfig(configPath)
	}
	root.AddCommand(
		diffCmd(load),
		serveCmd(load),
		versionCmd(),
	)
	return root
}

// loadConfig loads path, or the nearest weft.yaml when path is empty.
// Without either, defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, err := config.Find(wd)
		if err != nil {
			return config.Default(), nil
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
