package core

import (
	"bufio"
	"io"
)

// newLineScanner returns a scanner that splits on '\n', strips an optional
// trailing '\r', and surfaces oversized lines as over-length tokens the
// caller treats as fatal.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineBytes+2), maxLineBytes+2)
	scanner.Split(scanLines)
	return scanner
}

func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' {
			line := data[:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			return i + 1, line, nil
		}
		if i >= maxLineBytes {
			return i + 1, data[:i+1], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
