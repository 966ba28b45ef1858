package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// missing string values recognised on load, beyond the empty cell.
var missingTokens = map[string]bool{
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"null": true,
}

// NormalizeName canonicalizes a column name: lower-case, alphanumerics only.
// "PassengerId" and "passenger_id" both normalize to "passengerid".
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// ReadCSV loads a CSV file into a Table. The header row is required and
// column names are normalized. A column whose every non-missing cell parses
// as a float becomes numeric with NaN marking missing cells; any other
// column is kept as strings with "" marking missing cells.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "lifeboat: open %s", path)
	}
	defer f.Close()
	return readCSV(bufio.NewReader(f), path)
}

// ReadCSVFrom is ReadCSV over an arbitrary reader, used by tests.
func ReadCSVFrom(r io.Reader, source string) (*Table, error) {
	return readCSV(r, source)
}

func readCSV(r io.Reader, source string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "lifeboat: read %s", source)
	}
	if len(records) == 0 {
		return nil, errors.NewDataFormatError(source, "", "no header row")
	}

	header := records[0]
	names := make([]string, len(header))
	for j, h := range header {
		names[j] = NormalizeName(h)
		if names[j] == "" {
			return nil, errors.NewDataFormatError(source, h, "header cell normalizes to empty name")
		}
	}

	rows := records[1:]
	for i, rec := range rows {
		if len(rec) != len(header) {
			return nil, errors.NewDataFormatError(source, "",
				"row "+strconv.Itoa(i+2)+" has "+strconv.Itoa(len(rec))+" cells, header has "+strconv.Itoa(len(header)))
		}
	}

	table := NewTable(source)
	for j, name := range names {
		raw := make([]string, len(rows))
		for i := range rows {
			cell := strings.TrimSpace(rows[i][j])
			if missingTokens[cell] {
				cell = ""
			}
			raw[i] = cell
		}

		if floats, ok := tryNumeric(raw); ok {
			err = table.AddNumeric(name, floats)
		} else {
			err = table.AddString(name, raw)
		}
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}

// tryNumeric parses a raw string column as floats. It succeeds only when
// every non-missing cell parses and at least one cell is non-missing.
func tryNumeric(raw []string) ([]float64, bool) {
	floats := make([]float64, len(raw))
	seen := false
	for i, cell := range raw {
		if cell == "" {
			floats[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		floats[i] = v
		seen = true
	}
	return floats, seen
}
