package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <session-id>",
	Short: "Export the progress of a session",
	Long:  `Reads the cached state of a session and outputs a Mermaid diagram (graph LR) of the wizard steps.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cache := openCache(cmd)
		defer cache.Close()

		state, err := cache.LoadState(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(state))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
