// Package exporter writes a user's applications in portable formats.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"

	dateLayout = "2006-01-02"
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// Record is the flattened export shape of an application. Unspecified
// optional fields are empty.
type Record struct {
	ID           uint64 `json:"id" yaml:"id"`
	CompanyName  string `json:"company_name" yaml:"company_name"`
	Position     string `json:"position" yaml:"position"`
	CompanyEmail string `json:"company_email,omitempty" yaml:"company_email,omitempty"`
	Location     string `json:"location,omitempty" yaml:"location,omitempty"`
	Salary       string `json:"salary,omitempty" yaml:"salary,omitempty"`
	Notes        string `json:"notes,omitempty" yaml:"notes,omitempty"`
	JobURL       string `json:"job_url,omitempty" yaml:"job_url,omitempty"`
	Status       string `json:"status" yaml:"status"`
	DateApplied  string `json:"date_applied" yaml:"date_applied"`
	CreatedAt    string `json:"created_at" yaml:"created_at"`
}

var csvHeaders = []string{
	"id",
	"company_name",
	"position",
	"company_email",
	"location",
	"salary",
	"notes",
	"job_url",
	"status",
	"date_applied",
	"created_at",
}

func NewRecord(app *entity.Application) Record {
	return Record{
		ID:           app.ID,
		CompanyName:  app.CompanyName,
		Position:     app.Position,
		CompanyEmail: app.CompanyEmail.String,
		Location:     app.Location.String,
		Salary:       app.Salary.String,
		Notes:        app.Notes.String,
		JobURL:       app.JobURL.String,
		Status:       app.Status,
		DateApplied:  app.DateApplied.Format(dateLayout),
		CreatedAt:    app.CreatedAt.Format(time.RFC3339),
	}
}

func Write(w io.Writer, format Format, apps []*entity.Application) error {
	records := make([]Record, 0, len(apps))
	for _, app := range apps {
		records = append(records, NewRecord(app))
	}

	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("write JSON export: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("write YAML export: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func writeCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeaders); err != nil {
		return fmt.Errorf("write CSV headers: %w", err)
	}

	for _, r := range records {
		row := []string{
			strconv.FormatUint(r.ID, 10),
			r.CompanyName,
			r.Position,
			r.CompanyEmail,
			r.Location,
			r.Salary,
			r.Notes,
			r.JobURL,
			r.Status,
			r.DateApplied,
			r.CreatedAt,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
