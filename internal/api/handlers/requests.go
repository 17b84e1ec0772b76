package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/tradelens/internal/table"
)

// maxBodyBytes bounds an uploaded trade log
const maxBodyBytes = 32 << 20

// Records is a trade table as a sequence of JSON objects, one per row
type Records []map[string]any

// Table infers a typed table from the records.
// columns fixes the column order; unlisted keys follow alphabetically.
func (r Records) Table(columns []string) (*table.Table, error) {
	return table.FromRecordsInOrder(r, columns)
}

// TableRequest carries one trade table
type TableRequest struct {
	Records         Records  `json:"records"`
	Columns         []string `json:"columns,omitempty"`
	StartingCapital float64  `json:"starting_capital,omitempty"`
}

// FeaturesRequest is the body of POST /api/features
type FeaturesRequest struct {
	TableRequest
	SourceFile string   `json:"source_file,omitempty"`
	GainColumn string   `json:"gain_column,omitempty"`
	Exclude    []string `json:"exclude,omitempty"`
}

// MonthlyRequest is the body of POST /api/breakdown/monthly
type MonthlyRequest struct {
	TableRequest
	Year int `json:"year"`
}

// CompareRequest is the body of POST /api/compare
type CompareRequest struct {
	Baseline        Records  `json:"baseline"`
	BaselineColumns []string `json:"baseline_columns,omitempty"`
	Combined        Records  `json:"combined"`
	CombinedColumns []string `json:"combined_columns,omitempty"`
	StartingCapital float64  `json:"starting_capital,omitempty"`
}

// ExclusionsRequest is the body of PUT /api/exclusions
type ExclusionsRequest struct {
	SourceFile string   `json:"source_file"`
	Exclusions []string `json:"exclusions"`
}

// ExclusionsResponse lists the saved exclusions of one source file
type ExclusionsResponse struct {
	SourceFile string   `json:"source_file"`
	Exclusions []string `json:"exclusions"`
}

// YearsResponse lists the years present in a table
type YearsResponse struct {
	Years []int `json:"years"`
}

// decode reads a JSON body into dest and returns its fingerprint (sha256 of the raw bytes)
func decode(w http.ResponseWriter, r *http.Request, dest interface{}) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return "", fmt.Errorf("invalid request body: %w", err)
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
