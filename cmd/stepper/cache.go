package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/pkg/persistence/middleware"
	"github.com/aretw0/stepper/pkg/ports"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local recovery cache",
	Long:  `List, inspect, and remove the sessions kept in the configured cache backend.`,
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached sessions",
	Run: func(cmd *cobra.Command, args []string) {
		cache := openCache(cmd)
		defer cache.Close()

		sessions, err := cache.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(sessions) == 0 {
			fmt.Println("No cached sessions found.")
			return
		}

		fmt.Println("Cached Sessions:")
		for _, s := range sessions {
			fmt.Println("- " + s)
		}
	},
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the cached progress and form of a session",
	Long:  `Prints the cached state and form. Personal data is masked unless --reveal is set.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := args[0]
		cache := openCache(cmd)
		defer cache.Close()

		var view ports.StepperCache = cache
		if reveal, _ := cmd.Flags().GetBool("reveal"); !reveal {
			view = middleware.Chain(cache, middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns))
		}

		state, err := view.LoadState(cmd.Context(), sessionID)
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", sessionID, err)
			os.Exit(1)
		}
		form, err := view.LoadForm(cmd.Context(), sessionID)
		if err != nil {
			fmt.Printf("Error loading form of '%s': %v\n", sessionID, err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(map[string]any{"state": state, "form": form}, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling session: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cache := openCache(cmd)
		defer cache.Close()
		hasError := false

		for _, sessionID := range args {
			if err := cache.Clear(cmd.Context(), sessionID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", sessionID, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", sessionID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheInspectCmd)
	cacheCmd.AddCommand(cacheRmCmd)

	cacheInspectCmd.Flags().Bool("reveal", false, "Show personal data in clear")
}

func openCache(cmd *cobra.Command) *cli.Cache {
	cache, err := cli.OpenCache(loadConfig(cmd))
	if err != nil {
		fmt.Printf("Error opening cache: %v\n", err)
		os.Exit(1)
	}
	return cache
}
