package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yasl-lang/yaql/internal/diag"
	"github.com/yasl-lang/yaql/internal/engine"
	"github.com/yasl-lang/yaql/internal/registry"
)

const shellIntro = "Welcome to the YAQL shell.   Type help or ? to list commands."
const shellPrompt = "(yaql) "

var shellCmd = &cobra.Command{
	Use:     "shell",
	Short:   "Start the interactive YAQL shell",
	Long: `Start an interactive shell backed by an in-memory SQL database.
Load schemas and data, run SQL queries, and export results back to YAML.`,
	GroupID: GroupShell,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := newReporter()
		reg := registry.New()

		eng, err := engine.New(reg, rep)
		if err != nil {
			return err
		}
		defer eng.Close()

		if cfg.Verbose {
			eng.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
		}

		sh := &shell{
			engine: eng,
			rep:    rep,
			in:     cmd.InOrStdin(),
			out:    cmd.OutOrStdout(),
		}
		return sh.run()
	},
}

// shell is the interactive command loop around an engine.
type shell struct {
	engine  *engine.Engine
	rep     *diag.Reporter
	in      io.Reader
	out     io.Writer
	history io.WriteCloser
}

func (s *shell) run() error {
	interactive := false
	if f, ok := s.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		interactive = true
	}

	s.openHistory()
	if s.history != nil {
		defer s.history.Close()
	}

	fmt.Fprintln(s.out, shellIntro)
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if interactive {
			fmt.Fprint(s.out, shellPrompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.record(line)
		if s.dispatch(line) {
			return nil
		}
	}
}

// dispatch executes one shell line. It returns true when the shell
// should exit.
func (s *shell) dispatch(line string) bool {
	verb, arg := splitVerb(line)
	switch verb {
	case "load_schema":
		s.loadSchema(arg)
	case "load_data":
		s.loadData(arg)
	case "store_schema":
		s.storeSchema(arg)
	case "export_data":
		s.exportData(arg)
	case "sql":
		s.sql(arg)
	case "help", "?":
		s.help()
	case "exit", "quit":
		if s.engine.UnsavedChanges() {
			s.rep.Infof("⚠️ You have unsaved changes.")
		}
		s.rep.Infof("Goodbye!")
		return true
	default:
		s.rep.Failf("Unknown command: %s. Type help or ? to list commands.", verb)
	}
	return false
}

func (s *shell) loadSchema(arg string) {
	if arg == "" {
		s.rep.Failf("Please provide a file path or directory.")
		return
	}
	s.rep.Infof("Loading schema from: %s", arg)
	done := startSpinner("Loading schema")
	ok := s.engine.LoadSchema(arg)
	done()
	if ok {
		s.rep.Successf("Schema loaded successfully.")
	} else {
		s.rep.Failf("Failed to load schema.")
	}
}

func (s *shell) loadData(arg string) {
	if arg == "" {
		s.rep.Failf("Please provide a file path or directory.")
		return
	}
	fields := strings.Fields(arg)
	path := fields[0]
	typeName := ""
	if len(fields) > 1 {
		typeName = fields[1]
	}
	s.rep.Infof("Loading data from: %s", path)
	done := startSpinner("Loading data")
	count := s.engine.LoadData(path, typeName)
	done()
	s.rep.Successf("Loaded %d data records.", count)
}

func (s *shell) storeSchema(arg string) {
	if arg == "" {
		s.rep.Failf("Please provide an output file path.")
		return
	}
	if err := s.engine.StoreSchema(arg); err != nil {
		s.rep.Failf("Failed to store schema: %v", err)
		return
	}
	s.rep.Successf("Schema written to %s.", arg)
}

func (s *shell) exportData(arg string) {
	if arg == "" {
		s.rep.Failf("Please provide an output directory.")
		return
	}
	fields := strings.Fields(arg)
	dir := fields[0]
	min := cfg != nil && cfg.MinimizeYAML
	if len(fields) > 1 && fields[1] == "min" {
		min = true
	}
	s.rep.Infof("Exporting data to: %s (min_mode=%v)", dir, min)
	count, err := s.engine.ExportData(dir, min)
	if err != nil {
		s.rep.Failf("Export failed: %v", err)
		return
	}
	s.rep.Successf("Exported %d data files.", count)
}

func (s *shell) sql(arg string) {
	if arg == "" {
		s.rep.Failf("Please provide a SQL query.")
		return
	}
	result, err := s.engine.ExecuteSQL(arg)
	if err != nil {
		s.rep.Failf("SQL Error: %v", err)
		return
	}
	if result == nil {
		s.rep.Infof("Query executed successfully.")
		return
	}
	if len(result.Rows) == 0 {
		s.rep.Infof("Query executed successfully (no results).")
		return
	}
	fmt.Fprintln(s.out, strings.Join(result.Columns, " | "))
	width := 3 * len(result.Columns)
	for _, col := range result.Columns {
		width += len(col)
	}
	fmt.Fprintln(s.out, strings.Repeat("-", width))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			cells[i] = fmt.Sprintf("%v", row[col])
		}
		fmt.Fprintln(s.out, strings.Join(cells, " | "))
	}
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  load_schema <path>         Load YASL schema definitions from a file or directory")
	fmt.Fprintln(s.out, "  load_data <path> [type]    Load and validate YAML data files")
	fmt.Fprintln(s.out, "  sql <query>                Execute a SQL query against the in-memory database")
	fmt.Fprintln(s.out, "  store_schema <path>        Write the current schema to a YASL file")
	fmt.Fprintln(s.out, "  export_data <dir> [min]    Export database contents to YAML files")
	fmt.Fprintln(s.out, "  exit | quit                Leave the shell")
}

// openHistory appends shell input to the configured history file.
// History is best effort; a missing or unwritable file disables it.
func (s *shell) openHistory() {
	if cfg == nil || cfg.HistoryFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(cfg.HistoryFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	s.history = f
}

func (s *shell) record(line string) {
	if s.history != nil {
		fmt.Fprintln(s.history, line)
	}
}

func splitVerb(line string) (string, string) {
	verb, rest, found := strings.Cut(line, " ")
	if !found {
		return verb, ""
	}
	return verb, strings.TrimSpace(rest)
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
