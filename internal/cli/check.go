package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/yamlio"
)

var checkCmd = &cobra.Command{
	Use:     "check [path...]",
	Short:   "Validate YASL schema definitions",
	Long:    "Parse and resolve YASL schema files or directories, reporting any definition errors.",
	GroupID: GroupValidation,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.SchemaDir}
		}

		rep := newReporter()
		reg := registry.New()
		ok := true
		for _, path := range paths {
			done := startSpinner(fmt.Sprintf("Checking %s", path))
			valid := yamlio.CheckSchemaFiles(reg, rep, path)
			done()
			if !valid {
				ok = false
			}
		}
		if !ok {
			return fmt.Errorf("schema validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
