package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/swarmbench/internal/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the preset file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default presets",
	Long: `Writes the built-in presets to the file named by --config so they can be
edited. An existing file is kept unless --force is given.`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing preset file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !forceInit {
		return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default presets to %s\n", configPath)
	return nil
}
