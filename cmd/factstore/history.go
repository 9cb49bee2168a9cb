package main

import (
	"os"
	"strings"
)

// historyCap is the maximum number of entries kept in the history
// file.
const historyCap = 1000

// loadHistory reads a newline-delimited history file, if present. A
// missing file is not an error — a fresh session simply starts empty.
func loadHistory(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	return lines, nil
}

// appendHistory appends line, trimming from the front once the cap is
// exceeded.
func appendHistory(history []string, line string) []string {
	history = append(history, line)
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	return history
}

// saveHistory persists history to path. The REPL loop saves *before*
// appending the current command, so a command that terminates the
// session ("exit") never ends up in the file to be re-entered on the
// next run.
func saveHistory(path string, history []string) error {
	return os.WriteFile(path, []byte(strings.Join(history, "\n")+"\n"), 0o644)
}
