package store

import (
	"os"
	"strings"
)

// ReadMOTD returns the MOTD text. If path is set and readable its contents
// win; otherwise fallback (the inline config value) is returned.
func ReadMOTD(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback, err
	}
	return strings.TrimSpace(string(data)), nil
}
