package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "stepper",
	Short: "Stepper drives the VASP certificate registration wizard",
	Long: `Stepper walks a VASP through the certificate registration form one step at a time,
validating each step and keeping the progress in a local cache and on the registration backend.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration file (STEPPER_* variables override it)")
}

func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat("stepper.yaml"); err == nil {
			path = "stepper.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
