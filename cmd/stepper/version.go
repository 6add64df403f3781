package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stepper",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stepper version %s\n", strings.TrimSpace(stepper.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
