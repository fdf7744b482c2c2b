package exporter

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"

	"gopkg.in/yaml.v3"
)

func sampleApplications() []*entity.Application {
	applied := time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)
	return []*entity.Application{
		{
			ID:          1,
			CompanyName: "Acme, Inc.",
			Position:    "Backend Engineer",
			Notes:       sql.NullString{String: "line one\nline two", Valid: true},
			Status:      entity.StatusInterview,
			DateApplied: applied,
			CreatedAt:   applied,
		},
		{
			ID:          2,
			CompanyName: "Globex",
			Position:    "SRE",
			JobURL:      sql.NullString{String: "https://globex.test/jobs/2", Valid: true},
			Status:      entity.StatusPending,
			DateApplied: applied.AddDate(0, 0, 3),
			CreatedAt:   applied.AddDate(0, 0, 3),
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"csv":   FormatCSV,
		" JSON": FormatJSON,
		"yml":   FormatYAML,
		"yaml":  FormatYAML,
	}
	for input, want := range cases {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleApplications()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "Acme, Inc." || rows[1][6] != "line one\nline two" || rows[1][9] != "2024-03-15" {
		t.Fatalf("unexpected first row %#v", rows[1])
	}
	if rows[2][7] != "https://globex.test/jobs/2" || rows[2][3] != "" {
		t.Fatalf("unexpected second row %#v", rows[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleApplications()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if _, ok := records[0]["job_url"]; ok {
		t.Fatalf("expected unspecified job_url to be omitted")
	}
	if records[1]["job_url"] != "https://globex.test/jobs/2" {
		t.Fatalf("unexpected job_url %v", records[1]["job_url"])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, sampleApplications()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var records []Record
	if err := yaml.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(records) != 2 || records[0].CompanyName != "Acme, Inc." || records[1].DateApplied != "2024-03-18" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got := bytes.TrimSpace(buf.Bytes()); string(got) != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}
