package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/paul-reitz/relate.io/internal/models"
)

// GOALS_SEPARATOR splits the optional goals cell into individual goals.
const GOALS_SEPARATOR = ";"

// ErrInvalidCSV marks files that cannot be imported at all, as opposed to
// files with some bad rows.
var ErrInvalidCSV = errors.New("invalid CSV")

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var riskLevels = map[string]bool{
	models.RiskConservative: true,
	models.RiskModerate:     true,
	models.RiskAggressive:   true,
}

// RowError reports why a single CSV line was skipped. Line numbers are
// 1-based and include the header line.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

type clientImporter interface {
	BulkUpsertClients(ctx context.Context, advisorID int64, clients []models.Client) (int, error)
}

// Importer reads client rosters out of uploaded CSV files. Rows are
// validated individually; every valid row lands in one transaction while
// invalid rows are reported back with their line numbers.
type Importer struct {
	store clientImporter
}

func NewImporter(store clientImporter) *Importer {
	return &Importer{store: store}
}

// ImportCSV parses a roster with header
// name,email,phone,risk_tolerance,goals (phone, risk_tolerance and goals
// optional) and upserts the valid rows for the advisor.
func (im *Importer) ImportCSV(ctx context.Context, advisorID int64, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Column counts are checked per row so one short line cannot abort
	// the whole file.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: failed to read header: %v", ErrInvalidCSV, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["name"]; !ok {
		return ImportResult{}, fmt.Errorf("%w: must contain 'name' and 'email' columns", ErrInvalidCSV)
	}
	if _, ok := columns["email"]; !ok {
		return ImportResult{}, fmt.Errorf("%w: must contain 'name' and 'email' columns", ErrInvalidCSV)
	}

	var result ImportResult
	var valid []models.Client
	seen := make(map[string]bool)

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Error: err.Error()})
			continue
		}

		client, rowErr := parseRow(record, columns, seen)
		if rowErr != "" {
			result.Errors = append(result.Errors, RowError{Line: line, Error: rowErr})
			continue
		}

		seen[client.Email] = true
		valid = append(valid, client)
	}
	result.Skipped = len(result.Errors)

	if len(valid) > 0 {
		imported, err := im.store.BulkUpsertClients(ctx, advisorID, valid)
		if err != nil {
			return ImportResult{}, fmt.Errorf("failed to import clients: %w", err)
		}
		result.Imported = imported
	}

	slog.Info("[Ingestion] Client roster imported",
		slog.Int64("advisor_id", advisorID),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

func parseRow(record []string, columns map[string]int, seen map[string]bool) (models.Client, string) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	name := cell("name")
	if name == "" {
		return models.Client{}, "name is required"
	}

	email := strings.ToLower(cell("email"))
	if email == "" {
		return models.Client{}, "email is required"
	}
	if !emailRegex.MatchString(email) {
		return models.Client{}, fmt.Sprintf("invalid email %q", email)
	}
	if seen[email] {
		return models.Client{}, fmt.Sprintf("duplicate email %q", email)
	}

	risk := strings.ToLower(cell("risk_tolerance"))
	if risk == "" {
		risk = models.RiskModerate
	}
	if !riskLevels[risk] {
		return models.Client{}, fmt.Sprintf("invalid risk_tolerance %q", risk)
	}

	var goals []string
	for _, goal := range strings.Split(cell("goals"), GOALS_SEPARATOR) {
		goal = strings.TrimSpace(goal)
		if goal != "" {
			goals = append(goals, goal)
		}
	}

	return models.Client{
		Name:            name,
		Email:           email,
		Phone:           cell("phone"),
		RiskTolerance:   risk,
		InvestmentGoals: goals,
	}, ""
}
