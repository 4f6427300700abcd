package embedding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// ErrInvalidSequence signals input that is not a protein sequence.
var ErrInvalidSequence = errors.New("invalid protein sequence")

// ReadSequence reads one protein sequence from path. See ParseSequence for the accepted input.
func ReadSequence(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read sequence file: %w", err)
	}
	defer f.Close()
	seq, err := ParseSequence(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

// ParseSequence reads raw residues or FASTA. Only the first FASTA record is used; whitespace
// is ignored, letters are upper-cased and a trailing '*' stop marker is dropped.
func ParseSequence(r io.Reader) (string, error) {
	var b strings.Builder
	records := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, ">") {
			records++
			if records > 1 {
				break
			}
			continue
		}
		for _, r := range line {
			if unicode.IsSpace(r) {
				continue
			}
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSequence, err)
	}
	seq := strings.TrimSuffix(b.String(), "*")
	if seq == "" {
		return "", fmt.Errorf("%w: no residues", ErrInvalidSequence)
	}
	for i, r := range seq {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: unexpected %q at position %d", ErrInvalidSequence, r, i+1)
		}
	}
	return seq, nil
}
