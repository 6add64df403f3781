package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fill in the registration form interactively",
	Long:  `Opens (or resumes) a session and drives the wizard from the terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.RunOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			Debug:     debug,
		}
		if err := cli.Execute(cmd.Context(), cfg, opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "default", "Session to open or resume")
	runCmd.Flags().Bool("fresh", false, "Drop the cached progress of the session before starting")
	runCmd.Flags().Bool("debug", false, "Log lifecycle events")

	rootCmd.Run = runCmd.Run
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
