package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/analisavet/hemogram-server/internal/domain"
)

const (
	sniffSize = 1024
	// MaxCSVBytes caps how much of a CSV export is read
	MaxCSVBytes = 10 << 20
)

var candidateDelimiters = []rune{';', ',', '\t', '|'}

// ReadRows reads a delimited export with a header row. Each following record
// yields one row per column, in column order. Input that is not valid UTF-8
// is decoded as Windows-1252.
func ReadRows(r io.Reader) ([]domain.Row, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxCSVBytes))
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data, err = DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding csv: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	delimiter := SniffDelimiter(data)
	if delimiter == 0 {
		return singleColumnRows(string(data)), nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrEmptyDocument
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var rows []domain.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv record: %w", err)
		}
		for i, value := range record {
			if i >= len(header) {
				break
			}
			rows = append(rows, domain.Row{Key: header[i], Value: value})
		}
	}
	return rows, nil
}

// singleColumnRows reads an export with one column, where commas are decimal
// separators rather than delimiters
func singleColumnRows(data string) []domain.Row {
	var (
		rows   []domain.Row
		header string
	)
	for _, line := range strings.Split(data, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"`)
		if line == "" {
			continue
		}
		if header == "" {
			header = line
			continue
		}
		rows = append(rows, domain.Row{Key: header, Value: line})
	}
	return rows
}

// DecodeBytes strips a UTF-8 byte order mark and decodes input that is not
// valid UTF-8 as Windows-1252, the encoding of most lab exports.
func DecodeBytes(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(data)
}

// SniffDelimiter picks the candidate that appears the same non-zero number of
// times on the most sample lines, preferring higher counts. Only candidates
// found on the header line qualify, and only the first 1024 bytes are
// examined. It returns 0 when the header holds no candidate.
func SniffDelimiter(data []byte) rune {
	sample := string(data)
	if len(sample) > sniffSize {
		sample = sample[:sniffSize]
		// drop the line cut by the sample boundary
		if i := strings.LastIndexByte(sample, '\n'); i > 0 {
			sample = sample[:i]
		}
	}

	var lines []string
	for _, line := range strings.Split(sample, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return 0
	}

	var best rune
	bestLines, bestCount := 0, 0
	for _, d := range candidateDelimiters {
		if !strings.ContainsRune(lines[0], d) {
			continue
		}
		freq := make(map[int]int)
		for _, line := range lines {
			if n := strings.Count(line, string(d)); n > 0 {
				freq[n]++
			}
		}
		for count, nlines := range freq {
			if nlines > bestLines || (nlines == bestLines && count > bestCount) {
				best, bestLines, bestCount = d, nlines, count
			}
		}
	}
	return best
}
