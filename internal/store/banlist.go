package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadBanList reads the ban file: one IP per line, blank lines and
// #-comments ignored. The returned set fully replaces any previous one.
func LoadBanList(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bans := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		bans[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return bans, fmt.Errorf("scan ban file: %w", err)
	}
	return bans, nil
}

// AppendBan adds one IP to the end of the ban file, creating it if needed.
func AppendBan(path, ip string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ban file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, ip); err != nil {
		return fmt.Errorf("append ban: %w", err)
	}
	return nil
}
