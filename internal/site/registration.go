package site

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonesrussell/utdisclosures/internal/domain"
)

const (
	folderDetailsPathFmt = "/Search/PublicSearch/FolderDetails/%s"

	// registrationFrameSelector locates the iframe on the folder
	// details page whose src is the entity details (statement of
	// organization) page.
	registrationFrameSelector = "iframe#registrationDialogIFrame"
)

// registrationTypes maps the entity details page title to the entity
// type recorded in the registration document.
var registrationTypes = map[string]string{
	"Political Issues Commitee Statement of Organization":             "Political Issues Committee",
	"Financial Disclosures Registration for Corporation":              "Corporation",
	"Political Action Committee Statement of Organization":            "Political Action Committee",
	"Candidates & Office Holders Statement of Organization":           "Candidates & Office Holders",
	"Financial Disclosures Registration for Political Party":          "Political Party",
	"Financial Disclosures Registration for Independent Expenditures": "Independent Expenditures",
	"Financial Disclosures Registration for Electioneering":           "Electioneering",
}

// fieldLabels maps on-page field labels to document field names. The
// source reuses the same label set across every registration type.
var fieldLabels = map[string]string{
	"Name of Corporation":     "name",
	"Name":                    "name",
	"Name of Political Party": "name",
	"County":                  "county",
	"Telephone Number":        "phone",
	"Street Address":          "address1",
	"Suite/PO Box":            "address2",
	"City":                    "city",
	"State":                   "state",
	"Zip":                     "zipcode",
	"Also known as":           "aka",
	"Date Created":            "date_created",
	"First":                   "first",
	"Middle":                  "middle",
	"Last":                    "last",
	"Suffix":                  "suffix",
	"Title":                   "title",
	"Email":                   "email",
	"Occupation":              "occupation",
	"Business Address":        "address1",
	"Ballot Proposition":      "ballot_proposition",
	"Ballot Position":         "ballot_position",
	"Name of organization, individual, corporation, association, unit of government, or union that the PIC Represents": "first",
	"Name of organization, individual, corporation, association, unit of government, or union that the PAC Represents": "first",
	"Name of organization affiliated with the PAC": "first",
	"Name of organization affiliated with the PIC": "first",
	"Office":             "office",
	"Party":              "party",
	"District #":         "district_number",
	"County of Election": "county",
	"Organization":       "affiliated_organization",
}

// entityLegends are the fieldset legends whose values apply to the
// entity itself rather than an associated person.
var entityLegends = map[string]struct{}{
	"Corporate Information":                {},
	"PAC Information":                      {},
	"PIC Information":                      {},
	"Party Information":                    {},
	"Candidate Information":                {},
	"Independent Expenditures Information": {},
	"Electioneer Information":              {},
}

// Registration fetches the full registration document for one entity.
// This is a two-hop fetch: the folder details page embeds the entity
// details page in an iframe, and the document itself is parsed from
// the latter.
func (c *Client) Registration(ctx context.Context, entityID string) (*domain.Entity, error) {
	folderBody, err := c.get(ctx, fmt.Sprintf(folderDetailsPathFmt, url.PathEscape(entityID)))
	if err != nil {
		return nil, err
	}

	detailsRef, err := registrationFrameSource(folderBody)
	if err != nil {
		return nil, err
	}

	detailsURL, err := c.resolve(detailsRef)
	if err != nil {
		return nil, err
	}

	detailsBody, err := c.get(ctx, detailsRef)
	if err != nil {
		return nil, err
	}

	return parseRegistration(entityID, detailsURL, detailsBody)
}

// registrationFrameSource extracts the entity details URL from the
// folder details page.
func registrationFrameSource(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", &PermanentError{Reason: "unparseable folder details page", Err: err}
	}

	src, ok := doc.Find(registrationFrameSelector).First().Attr("src")
	if !ok || src == "" {
		return "", &PermanentError{Reason: "registration iframe missing"}
	}

	return src, nil
}

// parseRegistration assembles a registration document from the entity
// details page. Fieldsets with an entity legend populate the entity;
// person fieldsets each append one associated person.
func parseRegistration(entityID, sourceURL string, body []byte) (*domain.Entity, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &PermanentError{Reason: "unparseable entity details page", Err: err}
	}

	entity := &domain.Entity{ID: entityID, Source: sourceURL}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	entityType, known := registrationTypes[title]
	if !known {
		return nil, &PermanentError{Reason: fmt.Sprintf("unknown registration title %q", title)}
	}
	entity.Type = entityType

	var parseErr error

	doc.Find("fieldset").EachWithBreak(func(_ int, fs *goquery.Selection) bool {
		legend := strings.TrimSpace(fs.Find("legend").First().Text())

		data, valuesErr := fieldsetValues(fs)
		if valuesErr != nil {
			parseErr = valuesErr
			return false
		}

		switch {
		case isEntityLegend(legend):
			for field, value := range data {
				applyEntityField(entity, field, value)
			}
		case strings.HasPrefix(legend, "Information about") ||
			strings.HasPrefix(legend, "Personal Campaign Committee"):
			var person domain.Person
			for field, value := range data {
				applyPersonField(&person, field, value)
			}
			entity.AssociatedPeople = append(entity.AssociatedPeople, person)
		default:
			parseErr = &PermanentError{Reason: fmt.Sprintf("unknown registration legend %q", legend)}
			return false
		}

		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	return entity, nil
}

func isEntityLegend(legend string) bool {
	_, ok := entityLegends[legend]
	return ok
}

// fieldsetValues collects the label/value pairs of one fieldset.
func fieldsetValues(fs *goquery.Selection) (map[string]string, error) {
	data := make(map[string]string)

	var err error

	fs.Find("div.dis-cell label").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		name := strings.TrimSpace(label.Text())

		field, known := fieldLabels[name]
		if !known {
			err = &PermanentError{Reason: fmt.Sprintf("unknown registration field label %q", name)}
			return false
		}

		data[field] = labelTail(label)

		return true
	})

	if err != nil {
		return nil, err
	}

	return data, nil
}

// labelTail returns the text immediately following the label element,
// which is where the page keeps the field's value.
func labelTail(label *goquery.Selection) string {
	if len(label.Nodes) == 0 {
		return ""
	}

	var b strings.Builder
	for n := label.Nodes[0].NextSibling; n != nil && n.Type == html.TextNode; n = n.NextSibling {
		b.WriteString(n.Data)
	}

	return strings.TrimSpace(b.String())
}

// applyEntityField assigns a parsed value to the entity document.
// Labels that only make sense for a person fieldset are dropped here,
// matching the source's own sparse reuse of its label set.
func applyEntityField(entity *domain.Entity, field, value string) {
	switch field {
	case "name":
		entity.Name = value
	case "phone":
		entity.Phone = value
	case "address1":
		entity.Address1 = value
	case "address2":
		entity.Address2 = value
	case "city":
		entity.City = value
	case "state":
		entity.State = value
	case "zipcode":
		entity.Zipcode = value
	case "county":
		entity.County = value
	case "aka":
		entity.Aka = value
	case "date_created":
		entity.DateCreated = value
	case "ballot_proposition":
		entity.BallotProposition = value
	case "ballot_position":
		entity.BallotPosition = value
	case "affiliated_organization":
		entity.AffiliatedOrganization = value
	}
}

// applyPersonField assigns a parsed value to an associated person.
func applyPersonField(person *domain.Person, field, value string) {
	switch field {
	case "first":
		person.First = value
	case "middle":
		person.Middle = value
	case "last":
		person.Last = value
	case "suffix":
		person.Suffix = value
	case "title":
		person.Title = value
	case "address1":
		person.Address1 = value
	case "address2":
		person.Address2 = value
	case "city":
		person.City = value
	case "state":
		person.State = value
	case "zipcode":
		person.Zipcode = value
	case "county":
		person.County = value
	case "phone":
		person.Phone = value
	case "email":
		person.Email = value
	case "occupation":
		person.Occupation = value
	case "office":
		person.Office = value
	case "district_number":
		person.DistrictNumber = value
	case "party":
		person.Party = value
	}
}
