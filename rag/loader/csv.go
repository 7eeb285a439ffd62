package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// CSVLoader parses a CSV file into one document per data row.
type CSVLoader struct {
	contentColumns []string
}

// CSVOption configures a CSVLoader.
type CSVOption func(*CSVLoader)

// WithContentColumns restricts and orders the columns rendered into a
// row's Content, as a comma-separated list (e.g. "name,description"). If
// unset, every column is included in header order.
func WithContentColumns(cols string) CSVOption {
	return func(l *CSVLoader) {
		parts := strings.Split(cols, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		l.contentColumns = out
	}
}

// NewCSVLoader constructs a CSVLoader.
func NewCSVLoader(opts ...CSVOption) *CSVLoader {
	l := &CSVLoader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *CSVLoader) Load(_ context.Context, path string) ([]schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	cols := l.contentColumns
	if len(cols) == 0 {
		cols = header
	}

	docs := make([]schema.Document, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowValues := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				rowValues[h] = row[j]
			}
		}

		lines := make([]string, 0, len(cols))
		for _, c := range cols {
			lines = append(lines, fmt.Sprintf("%s: %s", c, rowValues[c]))
		}

		meta := map[string]any{
			"format": "csv",
			"source": path,
			"row":    i,
		}
		for h, v := range rowValues {
			meta[h] = v
		}

		docs = append(docs, schema.Document{
			ID:       fmt.Sprintf("%s-%d", path, i),
			Content:  strings.Join(lines, "\n"),
			Metadata: meta,
		})
	}
	return docs, nil
}
