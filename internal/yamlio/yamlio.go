// Package yamlio is the file I/O collaborator around the core: it
// enumerates schema and data files, decodes multi-document YAML streams
// into the generic trees the loader and validator consume, and preserves
// root-node line numbers for diagnostics.
package yamlio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yasl-lang/yaql/internal/diag"
	"github.com/yasl-lang/yaql/internal/loader"
	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/validate"
)

// SchemaExt is the schema file extension.
const SchemaExt = ".yasl"

// dataExts are the data file extensions.
var dataExts = []string{".yaml", ".yml"}

// DecodeDocuments decodes a multi-document YAML stream into validation
// documents with root-line provenance.
func DecodeDocuments(r io.Reader) ([]validate.Document, error) {
	dec := yaml.NewDecoder(r)
	var docs []validate.Document
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding yaml document: %w", err)
		}
		var fields map[string]any
		if err := node.Decode(&fields); err != nil {
			return nil, fmt.Errorf("decoding yaml document: %w", err)
		}
		docs = append(docs, validate.Document{Fields: fields, Line: node.Line})
	}
	return docs, nil
}

// DecodeTrees decodes a multi-document YAML stream into generic mapping
// trees, the form the schema loader consumes.
func DecodeTrees(r io.Reader) ([]map[string]any, error) {
	docs, err := DecodeDocuments(r)
	if err != nil {
		return nil, err
	}
	trees := make([]map[string]any, len(docs))
	for i, d := range docs {
		trees[i] = d.Fields
	}
	return trees, nil
}

// EnumerateFiles resolves path to the list of files to load: the file
// itself, or every file under the directory (recursively) carrying one of
// the extensions, sorted for determinism.
func EnumerateFiles(path string, exts ...string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		for _, want := range exts {
			if ext == want {
				files = append(files, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadSchemaFiles loads every schema document under path into reg in one
// load, so forward references across files resolve. A file that fails to
// decode is skipped with a per-file failure line; the remaining files still
// load, and the overall result reports the degradation.
func LoadSchemaFiles(reg *registry.Registry, rep *diag.Reporter, path string) ([]registry.TypeKey, error) {
	if rep == nil {
		rep = diag.Nop()
	}

	files, err := EnumerateFiles(path, SchemaExt)
	if err != nil {
		rep.Failf("%v", err)
		return nil, err
	}
	if len(files) == 0 {
		err := fmt.Errorf("no schema files found in %s", path)
		rep.Failf("%v", err)
		return nil, err
	}

	var trees []map[string]any
	var skipped int
	for _, f := range files {
		fileTrees, err := decodeFile(f)
		if err != nil {
			rep.Failf("skipping schema file %s: %v", f, err)
			skipped++
			continue
		}
		trees = append(trees, fileTrees...)
	}
	if len(trees) == 0 {
		err := fmt.Errorf("no loadable schema documents in %s", path)
		rep.Failf("%v", err)
		return nil, err
	}

	keys, err := loader.New(reg, rep).LoadSchema(trees...)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		return keys, fmt.Errorf("loading schema: %d file(s) skipped", skipped)
	}
	rep.Debugf("loaded %d schema file(s) from %s", len(files), path)
	return keys, nil
}

// CheckSchemaFiles reports whether the schema files under path form a valid,
// fully resolvable schema set.
func CheckSchemaFiles(reg *registry.Registry, rep *diag.Reporter, path string) bool {
	if rep == nil {
		rep = diag.Nop()
	}
	keys, err := LoadSchemaFiles(reg, rep, path)
	if err != nil || len(keys) == 0 {
		return false
	}
	rep.Successf("schema validation successful")
	return true
}

// LoadDataFiles validates every data document under path. typeName may be
// empty, letting each document infer its target type. The whole load is
// all-or-nothing.
func LoadDataFiles(reg *registry.Registry, rep *diag.Reporter, path, typeName string) ([]*validate.Record, error) {
	if rep == nil {
		rep = diag.Nop()
	}

	files, err := EnumerateFiles(path, dataExts...)
	if err != nil {
		rep.Failf("%v", err)
		return nil, err
	}
	if len(files) == 0 {
		err := fmt.Errorf("no data files found in %s", path)
		rep.Failf("%v", err)
		return nil, err
	}

	var docs []validate.Document
	for _, f := range files {
		fh, err := os.Open(f)
		if err != nil {
			rep.Failf("opening data file %s: %v", f, err)
			return nil, err
		}
		fileDocs, err := DecodeDocuments(fh)
		fh.Close()
		if err != nil {
			rep.Failf("reading data file %s: %v", f, err)
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}

	return validate.New(reg, rep).Validate(docs, typeName)
}

// EvalFiles loads a schema and validates data against it in one step. On
// any failure the result is nil and the diagnostics carry the reason.
func EvalFiles(reg *registry.Registry, rep *diag.Reporter, schemaPath, dataPath, typeName string) ([]*validate.Record, error) {
	if _, err := LoadSchemaFiles(reg, rep, schemaPath); err != nil {
		return nil, err
	}
	return LoadDataFiles(reg, rep, dataPath, typeName)
}

func decodeFile(path string) ([]map[string]any, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return DecodeTrees(fh)
}
