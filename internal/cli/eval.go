package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/validate"
	"github.com/yasl-lang/yaql/internal/yamlio"
)

var (
	evalSchemaPath string
	evalTypeName   string
)

var evalCmd = &cobra.Command{
	Use:     "eval [data-path...]",
	Short:   "Validate YAML data against a YASL schema",
	Long: `Load a YASL schema, then validate YAML data files or directories
against it. All documents in a batch must pass before any are accepted.`,
	GroupID: GroupValidation,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.DataDir}
		}
		schemaPath := evalSchemaPath
		if schemaPath == "" {
			schemaPath = cfg.SchemaDir
		}

		rep := newReporter()
		reg := registry.New()

		done := startSpinner(fmt.Sprintf("Loading schema from %s", schemaPath))
		_, err := yamlio.LoadSchemaFiles(reg, rep, schemaPath)
		done()
		if err != nil {
			return fmt.Errorf("schema load failed: %w", err)
		}

		var validated []*validate.Record
		for _, path := range paths {
			done := startSpinner(fmt.Sprintf("Validating %s", path))
			records, err := yamlio.LoadDataFiles(reg, rep, path, evalTypeName)
			done()
			if err != nil {
				return err
			}
			validated = append(validated, records...)
		}

		if cfg.Output == "yaml" {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			for _, rec := range validated {
				if err := enc.Encode(rec.Values); err != nil {
					return fmt.Errorf("encoding record: %w", err)
				}
			}
			return enc.Close()
		}
		rep.Infof("%d record(s) validated", len(validated))
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVarP(&evalSchemaPath, "schema", "s", "", "Schema file or directory (defaults to schema_dir from config)")
	evalCmd.Flags().StringVarP(&evalTypeName, "type", "t", "", "Expected type name for data documents (inferred when omitted)")
	rootCmd.AddCommand(evalCmd)
}
