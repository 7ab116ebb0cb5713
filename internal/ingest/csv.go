package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/services"
	"ledgerflow/internal/txn"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
}

// CSVSource yields transactions from a delimited statement export. It
// implements the pipeline source contract: Next returns io.EOF once the
// input is exhausted.
type CSVSource struct {
	reader    *csv.Reader
	closer    io.Closer
	line      int
	checkHead bool
}

// OpenCSV opens path and wraps it in a CSVSource. Close releases the file.
func OpenCSV(path string) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	source := NewCSVSource(file)
	source.closer = file
	return source, nil
}

// NewCSVSource wraps an open reader. The caller keeps ownership of r.
func NewCSVSource(r io.Reader) *CSVSource {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return &CSVSource{reader: reader, checkHead: true}
}

// Next returns the next transaction. Malformed rows surface as fatal item
// errors carrying the source line number; io.EOF signals exhaustion.
func (s *CSVSource) Next() (txn.Transaction, error) {
	for {
		record, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return txn.Transaction{}, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				s.line = parseErr.Line
				return txn.Transaction{}, s.rowError("malformed csv row", err)
			}
			return txn.Transaction{}, fmt.Errorf("read source: %w", err)
		}
		s.line++

		if s.checkHead {
			s.checkHead = false
			if isHeaderRow(record) {
				continue
			}
		}

		return s.parseRow(record)
	}
}

// Close releases the underlying file when the source owns one.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *CSVSource) parseRow(record []string) (txn.Transaction, error) {
	if len(record) < 3 {
		return txn.Transaction{}, s.rowError(fmt.Sprintf("expected 3 columns, got %d", len(record)), nil)
	}

	date, err := parseDate(record[0])
	if err != nil {
		return txn.Transaction{}, s.rowError("bad date", err)
	}
	amount, err := parseAmount(record[1])
	if err != nil {
		return txn.Transaction{}, s.rowError("bad amount", err)
	}
	description := strings.TrimSpace(record[2])
	if description == "" {
		return txn.Transaction{}, s.rowError("empty description", nil)
	}

	return txn.New(s.line, date, amount, description), nil
}

func (s *CSVSource) rowError(message string, err error) error {
	return services.Wrap(services.ErrFatalItem, "ingest", fmt.Sprintf("row %d", s.line), message, err)
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func parseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}
	if cleaned == "" {
		return decimal.Decimal{}, errors.New("empty amount")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return amount, nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	if first == "date" || first == "transaction date" || first == "posted" {
		return true
	}
	_, err := parseDate(record[0])
	return err != nil && len(record) >= 3 && !strings.ContainsAny(record[0], "0123456789")
}
