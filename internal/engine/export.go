package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yasl-lang/yaql/internal/export"
	"github.com/yasl-lang/yaql/internal/sig"
)

// StoreSchema writes the registry's resolved schema to a YASL file.
func (e *Engine) StoreSchema(path string) error {
	out, err := export.SchemaYAML(e.reg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("storing schema: %w", err)
	}
	e.log.Info().Str("path", path).Msg("schema stored")
	return nil
}

// ExportData writes the database contents back to YAML files under dir and
// returns the number of files written. Default mode writes one file per
// row; min mode concatenates all rows of a table into a single
// ----separated stream.
func (e *Engine) ExportData(dir string, min bool) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("exporting data: %w", err)
	}

	written := 0
	for table, key := range e.tableMap {
		rt := e.reg.GetType(key.Name, key.Namespace, "")
		if rt == nil {
			continue
		}

		result, err := e.ExecuteSQL(fmt.Sprintf("SELECT * FROM %q", table))
		if err != nil {
			return written, err
		}
		if len(result.Rows) == 0 {
			continue
		}

		docs := make([]map[string]any, 0, len(result.Rows))
		for _, row := range result.Rows {
			clean := map[string]any{}
			for _, f := range rt.Fields {
				v, ok := row[f.Name]
				if !ok || v == nil {
					continue
				}
				clean[f.Name] = nativeValue(f.Type, v)
			}
			docs = append(docs, clean)
		}

		if min {
			path := filepath.Join(dir, table+".yaml")
			if err := writeDocs(path, docs); err != nil {
				return written, err
			}
			written++
			continue
		}
		for i, doc := range docs {
			path := filepath.Join(dir, fmt.Sprintf("%s_%d.yaml", table, i+1))
			if err := writeDocs(path, []map[string]any{doc}); err != nil {
				return written, err
			}
			written++
		}
	}

	if written > 0 {
		e.unsaved = false
	}
	return written, nil
}

// nativeValue undoes the JSON encoding applied to compound columns on
// insert; scalar columns pass through.
func nativeValue(s sig.Signature, v any) any {
	if p, ok := s.(sig.Primitive); ok {
		switch p.Kind {
		case sig.KindBool:
			// SQLite stores booleans as integers.
			if n, ok := v.(int64); ok {
				return n != 0
			}
		}
		return v
	}
	text, ok := v.(string)
	if !ok {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return text
	}
	return decoded
}

func writeDocs(path string, docs []map[string]any) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("exporting data: %w", err)
	}
	defer fh.Close()

	enc := yaml.NewEncoder(fh)
	defer enc.Close()
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("exporting data to %s: %w", path, err)
		}
	}
	return nil
}
