package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrFileNotFound is returned when the portfolio file cannot be opened.
	ErrFileNotFound = errors.New("portfolio file not found")
	// ErrMalformedRow is returned when a data line is not id,EAD,PD,LGD.
	ErrMalformedRow = errors.New("malformed row")
)

// RowError points at the offending line (1-based, header is line 1) and column.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: line %d: %v", ErrMalformedRow, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: line %d: bad %s %q: %v", ErrMalformedRow, e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() []error { return []error{ErrMalformedRow, e.Err} }

// LoadCSV reads a portfolio file:
//
//	id,EAD,PD,LGD
//	1,10000000,0.0001,0.6
//
// The first line is a header and is skipped; the id column is kept only as a
// label. Blank lines are ignored. Values are not range-checked here, call
// Portfolio.Validate for that.
func LoadCSV(path string) (Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Portfolio{}, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses portfolio rows from r, see LoadCSV.
func ReadCSV(r io.Reader) (Portfolio, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		obligors []Obligor
		sawFirst bool
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var line int
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return Portfolio{}, &RowError{Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)

		// Header row
		if !sawFirst {
			sawFirst = true
			continue
		}
		if isBlank(row) {
			continue
		}

		o, err := parseRow(line, row)
		if err != nil {
			return Portfolio{}, err
		}
		obligors = append(obligors, o)
	}

	return Portfolio{obligors: obligors}, nil
}

func parseRow(line int, row []string) (Obligor, error) {
	if len(row) != 4 {
		return Obligor{}, &RowError{
			Line: line,
			Err:  fmt.Errorf("got %d fields, want 4 (id,EAD,PD,LGD)", len(row)),
		}
	}

	var vals [3]float64
	for i, col := range []string{"EAD", "PD", "LGD"} {
		s := strings.TrimSpace(row[i+1])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Obligor{}, &RowError{Line: line, Column: col, Value: s, Err: err}
		}
		vals[i] = v
	}

	return Obligor{
		ID:  strings.TrimSpace(row[0]),
		EAD: vals[0],
		PD:  vals[1],
		LGD: vals[2],
	}, nil
}

func isBlank(row []string) bool {
	for _, s := range row {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
