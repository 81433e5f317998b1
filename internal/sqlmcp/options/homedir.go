package options

import (
	"os"
	"path/filepath"
)

func userDataDir() (string, error) {
	if dir := os.Getenv("MCPSQL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mcpsql"), nil
}
