package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
	"github.com/aretw0/stepper/pkg/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a registration document",
	Long: `Validates a registration document (YAML or JSON) against the schema of a step.
The review step, the default, checks the whole document.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rawStep, _ := cmd.Flags().GetString("step")
		locale, _ := cmd.Flags().GetString("locale")

		result, err := runValidate(args[0], rawStep)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s: %s\n", result.Step, tui.Status(string(result.Status())))
		if result.Valid() {
			fmt.Println("Document is valid! ✅")
			return
		}
		for _, e := range validation.NewLocalizer(locale).Localize(result.Errors) {
			fmt.Printf("  - %s: %s\n", e.Field, e.Message)
		}
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("step", "review", "Step to validate (number or name)")
	validateCmd.Flags().String("locale", "en", "Language of the error messages")
}

func runValidate(path, rawStep string) (validation.Result, error) {
	step, err := domain.ParseStepKey(rawStep)
	if err != nil {
		return validation.Result{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return validation.Result{}, err
	}

	// JSON documents are valid YAML.
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return validation.Result{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	form, err := registration.Decode(values)
	if err != nil {
		return validation.Result{}, err
	}
	return validation.Completeness(step, form)
}
