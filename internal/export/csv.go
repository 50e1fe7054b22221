// Package export writes applications out for use in spreadsheets
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

const dateLayout = "2006-01-02"

var header = []string{
	"id",
	"company",
	"position",
	"status",
	"rejection stage",
	"applied",
	"last contact",
	"next action",
	"recruiter",
	"url",
	"location",
	"notes",
}

// WriteCSV writes a header row and one row per application
func WriteCSV(w io.Writer, apps []*tracker.Application) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, app := range apps {
		if err := writer.Write(record(app)); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile creates path and writes the applications to it
func WriteCSVFile(path string, apps []*tracker.Application) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := WriteCSV(file, apps); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func record(app *tracker.Application) []string {
	recruiter := app.RecruiterName
	if app.RecruiterEmail != "" {
		if recruiter != "" {
			recruiter += " <" + app.RecruiterEmail + ">"
		} else {
			recruiter = app.RecruiterEmail
		}
	}

	return []string{
		strconv.FormatInt(app.ID, 10),
		app.CompanyName,
		app.PositionTitle,
		app.Status.Label(),
		app.RejectedAtStage,
		formatDate(&app.AppliedDate),
		formatDate(app.LastContactDate),
		formatDate(app.NextActionDate),
		recruiter,
		app.JobURL,
		app.Location,
		app.Notes,
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
