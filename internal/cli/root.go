// Package cli provides Cobra-based CLI commands for the yaql tool.
// It defines the interactive shell, the schema check and data eval
// commands, and version reporting.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yasl-lang/yaql/internal/config"
	"github.com/yasl-lang/yaql/internal/diag"
)

// Command group IDs for organizing help output
const (
	GroupValidation    = "validation"
	GroupShell         = "shell"
	GroupConfiguration = "configuration"
)

var (
	cfg *config.Configuration

	flagConfig  string
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "yaql",
	Short: "YAQL - YAML Advanced Query Language CLI Tool",
	Long: `YAQL - YAML Advanced Query Language CLI Tool

Validate YAML documents against YASL schema definitions, then load them
into an in-memory SQL database for querying and export.`,
	Example: `  # Validate schema definitions
  yaql check schemas/

  # Validate data files against a schema
  yaql eval --schema schemas/ data/

  # Start the interactive shell
  yaql shell`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagQuiet && flagVerbose {
			return fmt.Errorf("cannot use both --quiet and --verbose")
		}
		if flagQuiet {
			loaded.Quiet = true
		}
		if flagVerbose {
			loaded.Verbose = true
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newReporter builds the diagnostics sink for a command run. Quiet mode
// discards everything except the command's returned error, which Cobra
// still prints to stderr.
func newReporter() *diag.Reporter {
	var w io.Writer = os.Stdout
	if cfg != nil && cfg.Quiet {
		w = io.Discard
	}
	verbose := cfg != nil && cfg.Verbose
	rep := diag.New(w, verbose)
	rep.EnableColor()
	return rep
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: GroupValidation, Title: "Validation:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupShell, Title: "Shell:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})

	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", ".yaql/config.json", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress output except for errors")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
}
