package site

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"strings"
)

const (
	disclosuresPathFmt = "/Search/AdvancedSearch/GenerateReport/%s"

	// emptyDisclosuresMessage is the literal body the source returns
	// when an entity has no transactions for the requested year.
	emptyDisclosuresMessage = "There are no recorded transactions for this entity in this year."
)

// Disclosures fetches the disclosure report for one entity and year.
// The response body is itself CSV text; the returned header and rows
// are the source's own, untouched. A nil header with nil rows means
// the source reported no transactions for that year.
func (c *Client) Disclosures(ctx context.Context, entityID, year string) (header []string, rows [][]string, err error) {
	ref := fmt.Sprintf(disclosuresPathFmt, url.PathEscape(entityID)) +
		"?ReportYear=" + url.QueryEscape(year)

	body, fetchErr := c.get(ctx, ref)
	if fetchErr != nil {
		return nil, nil, fetchErr
	}

	if strings.TrimSpace(string(body)) == emptyDisclosuresMessage {
		return nil, nil, nil
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1 // the source decides the field set

	records, parseErr := reader.ReadAll()
	if parseErr != nil {
		return nil, nil, &PermanentError{Reason: "malformed report CSV", Err: parseErr}
	}
	if len(records) == 0 {
		return nil, nil, &PermanentError{Reason: "empty report body"}
	}

	return records[0], records[1:], nil
}
