package site

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/utdisclosures/internal/domain"
)

// entityListPath is the advanced-search endpoint behind the public
// data library's full entity listing. Submitting the form with only a
// page number returns every registered entity, one page at a time.
const entityListPath = "/Search/AdvancedSearch/GetEntityReportList"

// EntityListPage fetches one page of the entity listing. Page numbers
// start at 1. The source wraps around to the first page after the last
// one, so callers must detect repeats to terminate enumeration.
func (c *Client) EntityListPage(ctx context.Context, page int) ([]domain.EntityRow, error) {
	form := url.Values{"PageNumber": {strconv.Itoa(page)}}

	body, err := c.postForm(ctx, entityListPath, form)
	if err != nil {
		return nil, err
	}

	return parseEntityListPage(body)
}

// parseEntityListPage extracts entity rows from a listing page. Each
// row's first cell holds an anchor whose text is the entity name and
// whose href ends in the entity id; the second cell is the type.
func parseEntityListPage(body []byte) ([]domain.EntityRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &PermanentError{Reason: "unparseable listing page", Err: err}
	}

	var rows []domain.EntityRow

	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")

		link := cells.First().Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		rows = append(rows, domain.EntityRow{
			EntityID:   path.Base(href),
			EntityType: strings.TrimSpace(cells.Eq(1).Text()),
			Name:       strings.TrimSpace(link.Text()),
		})
	})

	if len(rows) == 0 {
		return nil, &PermanentError{Reason: "no entity rows in listing page"}
	}

	return rows, nil
}
