package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/tgruber/ncusers/internal/domain"
)

// Format selects the roster file layout.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTOML Format = "toml"
)

var ErrUnsupportedFormat = errors.New("unsupported roster format")

func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatTOML:
		return true
	default:
		return false
	}
}

// DetectFormat guesses the format from the file extension, defaulting to CSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatCSV
	}
}

// ParseFile reads a roster file and returns normalized records plus one
// warning per skipped line.
func ParseFile(path string, format Format) ([]domain.AccountRecord, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open roster file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Parse(file, format)
}

// Parse reads "first, last, password" records and normalizes the name
// fields so the derived usernames are safe account identifiers.
func Parse(r io.Reader, format Format) ([]domain.AccountRecord, []string, error) {
	switch format {
	case FormatCSV:
		return parseCSV(r)
	case FormatTOML:
		return parseTOML(r)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func parseCSV(r io.Reader) ([]domain.AccountRecord, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []domain.AccountRecord
	var warnings []string

	// Blank lines are skipped by the reader itself; row counts data rows.
	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d is not valid CSV, skipped: %v", row, err))
			continue
		}

		if len(fields) != 3 {
			warnings = append(warnings, fmt.Sprintf("row %d has %d fields instead of 3, skipped", row, len(fields)))
			continue
		}

		records = append(records, newRecord(fields[0], fields[1], fields[2]))
	}

	return records, warnings, nil
}

type rosterDocument struct {
	Users []rosterUser `toml:"users"`
}

type rosterUser struct {
	First    string `toml:"first"`
	Last     string `toml:"last"`
	Password string `toml:"password"`
}

func parseTOML(r io.Reader) ([]domain.AccountRecord, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read roster: %w", err)
	}

	var doc rosterDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode roster toml: %w", err)
	}

	var records []domain.AccountRecord
	var warnings []string
	for i, user := range doc.Users {
		if user.First == "" || user.Last == "" || user.Password == "" {
			warnings = append(warnings, fmt.Sprintf("users entry %d is missing a field, skipped", i+1))
			continue
		}
		records = append(records, newRecord(user.First, user.Last, user.Password))
	}

	return records, warnings, nil
}

func newRecord(first, last, password string) domain.AccountRecord {
	return domain.AccountRecord{
		FirstName: NormalizeName(first),
		LastName:  NormalizeName(last),
		Password:  strings.TrimSpace(password),
	}
}
