// Command factstore is an interactive REPL over an in-memory fact
// store: load and write snapshots, ingest CSV tables, and run queries
// in the flat e/a/v/t query language.
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wbrown/factstore/factstore"
	"github.com/wbrown/factstore/factstore/executor"
	"github.com/wbrown/factstore/factstore/loader"
	"github.com/wbrown/factstore/factstore/snapshot"
)

const historyFile = ".history"

// session is one REPL's worth of state: the store, the executor bound
// to it, and the snapshot codec the w command writes with.
type session struct {
	store     *factstore.Store
	ex        *executor.Executor
	writeOpts snapshot.Options
}

func newSession(workers int, useZstd bool) *session {
	store := factstore.New()
	opts := snapshot.DefaultOptions()
	if useZstd {
		opts.Codec = snapshot.Zstd
	}
	return &session{
		store:     store,
		ex:        executor.New(store, executor.Options{Workers: workers}),
		writeOpts: opts,
	}
}

func main() {
	var (
		workers int
		dbPath  string
		useZstd bool
	)

	root := &cobra.Command{
		Use:           "factstore",
		Short:         "An in-memory fact store with a parallel query engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := newSession(workers, useZstd)
			if dbPath != "" {
				if err := sess.cmdLoad(dbPath); err != nil {
					return err
				}
			}
			return sess.run(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.Flags().IntVar(&workers, "workers", 0, "query worker pool width (0 = default)")
	root.Flags().StringVar(&dbPath, "db", "", "snapshot to load at startup")
	root.Flags().BoolVarP(&useZstd, "zstd", "z", false, "write snapshots with zstd instead of snappy")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the factstore version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "factstore dev")
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("fatal: %v", err))
		os.Exit(1)
	}
}

func (s *session) run(in io.Reader, out io.Writer) error {
	history, err := loadHistory(historyFile)
	if err != nil {
		fmt.Fprintln(out, color.YellowString("warning: could not load history: %v", err))
	}

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, "> ")
			continue
		}
		if line == "exit" {
			break
		}

		if err := saveHistory(historyFile, history); err != nil {
			fmt.Fprintln(out, color.YellowString("warning: could not save history: %v", err))
		}
		history = appendHistory(history, line)

		if err := s.dispatch(line, out); err != nil {
			fmt.Fprintln(out, color.RedString("error: %v", err))
		}
		fmt.Fprint(out, "> ")
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := saveHistory(historyFile, history); err != nil {
		fmt.Fprintln(out, color.YellowString("warning: could not save history: %v", err))
	}
	return nil
}

func (s *session) dispatch(line string, out io.Writer) error {
	switch {
	case line == "clear":
		fmt.Fprint(out, "\033[H\033[2J")
		return nil

	case line == "empty":
		s.store.Reset()
		fmt.Fprintln(out, "store emptied")
		return nil

	case line == "q":
		// Bare q is the empty query: the whole store.
		return s.cmdQuery("", out)

	case strings.HasPrefix(line, "l "):
		return s.cmdLoad(strings.TrimSpace(line[2:]))

	case strings.HasPrefix(line, "w "):
		return s.cmdWrite(strings.TrimSpace(line[2:]))

	case strings.HasPrefix(line, "q "):
		return s.cmdQuery(strings.TrimSpace(line[2:]), out)

	case strings.HasPrefix(line, "c "):
		return s.cmdIngest(strings.TrimSpace(line[2:]), out)

	default:
		return &factstore.CommandError{Command: line, Message: "unrecognized command (expected l, w, q, c, empty, clear, or exit)"}
	}
}

func (s *session) cmdLoad(path string) error {
	loaded, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	*s.store = *loaded
	return nil
}

func (s *session) cmdWrite(path string) error {
	return snapshot.Write(path, s.store, s.writeOpts)
}

func (s *session) cmdQuery(q string, out io.Writer) error {
	view, err := s.ex.ExecuteText(q)
	if err != nil {
		return err
	}
	fmt.Fprint(out, executor.FormatView(view))
	return nil
}

func (s *session) cmdIngest(argsLine string, out io.Writer) error {
	path, _, cfg, err := parseIngestArgs(argsLine)
	if err != nil {
		return err
	}

	table, err := readTable(path)
	if err != nil {
		return err
	}

	n, err := loader.Ingest(s.store, table, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, color.GreenString("ingested %d rows from %s", n, path))
	return nil
}

// readTable reads a CSV file into a loader.Table. CSV parsing only
// happens here, at the CLI boundary, never inside factstore/loader.
func readTable(path string) (loader.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return loader.Table{}, &factstore.IoError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return loader.Table{}, &factstore.IoError{Path: path, Op: "read", Err: err}
	}
	if len(rows) == 0 {
		return loader.Table{}, &factstore.TabularFormatError{Message: fmt.Sprintf("%s has no rows", path)}
	}

	return loader.Table{Header: rows[0], Rows: rows[1:]}, nil
}
