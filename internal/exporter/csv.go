// Package exporter renders resolved series for the CLI front end.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"econcli/pkg/contracts/domain"
)

// seriesHeaders is the column order of the CSV output.
var seriesHeaders = []string{"date", "value", "period", "year", "month", "revision_status"}

// WriteCSV writes the series data points as CSV rows under a fixed
// header. Series metadata is printed separately via WriteInfo.
func WriteCSV(w io.Writer, series *domain.Series) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(seriesHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, p := range series.Points {
		record := []string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
			p.Period,
			strconv.Itoa(p.Year),
			strconv.Itoa(p.Month),
			string(p.RevisionStatus),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full series envelope, indented for terminals.
func WriteJSON(w io.Writer, series *domain.Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(series)
}

// WriteInfo prints the series metadata line the CLI shows above the
// data table.
func WriteInfo(w io.Writer, series *domain.Series) {
	fmt.Fprintf(w, "# %s (%s) | %s, %s, %s\n",
		series.Info.Name, series.Info.ID, series.Info.Frequency,
		series.Info.Units, series.Info.SourceAgency)
}
