package ml

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// FastaRecord is one FASTA entry: the header without '>' and the
// concatenated sequence lines.
type FastaRecord struct {
	Header   string
	Sequence string
}

var ErrFastaNoHeader = errors.New("fasta: sequence data before first header")

// ParseFasta reads every record from r. Blank lines and ';' comment lines
// are skipped.
func ParseFasta(r io.Reader) ([]FastaRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var records []FastaRecord
	var current *FastaRecord
	var seq strings.Builder
	flush := func() {
		if current != nil {
			current.Sequence = seq.String()
			records = append(records, *current)
			seq.Reset()
		}
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "", strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, ">"):
			flush()
			current = &FastaRecord{Header: strings.TrimSpace(line[1:])}
		default:
			if current == nil {
				return nil, ErrFastaNoHeader
			}
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return records, nil
}
