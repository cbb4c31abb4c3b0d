package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jonesrussell/utdisclosures/internal/domain"
)

// WriteCSV writes header and rows to path as CSV. The header is the
// source's own field names, passed through verbatim; a nil header with
// no rows produces an empty file.
func WriteCSV(path string, header []string, rows [][]string) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)

		if header != nil {
			if err := cw.Write(header); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
		}

		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}

		cw.Flush()

		return cw.Error()
	})
}

// WriteEntities writes the entity listing CSV.
func WriteEntities(path string, rows []domain.EntityRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{row.EntityID, row.EntityType, row.Name})
	}

	return WriteCSV(path, domain.EntityListColumns, records)
}

// ReadEntities reads back an entity listing CSV produced by a prior
// run, so registration enumeration can reuse it instead of re-crawling
// the listing.
func ReadEntities(path string) ([]domain.EntityRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entity listing: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read entity listing: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("entity listing %s has no header", path)
	}

	header := records[0]
	idCol := slices.Index(header, "entity_id")
	typeCol := slices.Index(header, "entity_type")
	nameCol := slices.Index(header, "name")
	if idCol < 0 {
		return nil, fmt.Errorf("entity listing %s has no entity_id column", path)
	}

	rows := make([]domain.EntityRow, 0, len(records)-1)

	for _, record := range records[1:] {
		row := domain.EntityRow{EntityID: record[idCol]}
		if typeCol >= 0 && typeCol < len(record) {
			row.EntityType = record[typeCol]
		}
		if nameCol >= 0 && nameCol < len(record) {
			row.Name = record[nameCol]
		}
		rows = append(rows, row)
	}

	return rows, nil
}
