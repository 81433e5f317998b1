package options

import (
	"path/filepath"

	"github.com/spf13/pflag"
)

// ShellOptions configure the interactive shell and one-shot queries.
type ShellOptions struct {
	// HistoryFile is the bolt database holding shell history. Empty disables
	// history.
	HistoryFile string `json:"history_file" mapstructure:"history-file"`
	// Database is the SQLite database opened by the shell. Default: in memory.
	Database string `json:"database" mapstructure:"database"`
}

func NewShellOptions() *ShellOptions {
	return &ShellOptions{
		HistoryFile: defaultHistoryFile(),
		Database:    ":memory:",
	}
}

func (o *ShellOptions) Validate() []error {
	return nil
}

func (o *ShellOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.HistoryFile, "shell.history-file", o.HistoryFile, "Path of the shell history database. Empty disables history.")
	fs.StringVar(&o.Database, "shell.database", o.Database, "SQLite database to open.")
}

func defaultHistoryFile() string {
	dir, err := userDataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history.db")
}
