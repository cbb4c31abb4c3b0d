// Package domain defines the data model for records retrieved from the
// Utah campaign finance disclosure site.
package domain

// EntityRow is one row of the source's entity listing. The column set
// mirrors the listing table on disclosures.utah.gov exactly.
type EntityRow struct {
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	Name       string `json:"name"`
}

// EntityListColumns is the header of the entity listing CSV, in source order.
var EntityListColumns = []string{"entity_id", "entity_type", "name"}

// Person is an individual associated with a registered entity, as it
// appears in a registration document's person fieldsets.
type Person struct {
	First          string `json:"first"`
	Middle         string `json:"middle"`
	Last           string `json:"last"`
	Suffix         string `json:"suffix"`
	Title          string `json:"title"`
	Address1       string `json:"address1"`
	Address2       string `json:"address2"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zipcode        string `json:"zipcode"`
	County         string `json:"county"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Occupation     string `json:"occupation"`
	Office         string `json:"office"`
	DistrictNumber string `json:"district_number"`
	Party          string `json:"party"`
}

// Entity is a full registration document for one registrant. Fields are
// populated from the entity details page verbatim; anything the page
// does not show stays empty. Immutable once fetched.
type Entity struct {
	ID                     string   `json:"id"`
	Source                 string   `json:"source"`
	Type                   string   `json:"type"`
	Name                   string   `json:"name"`
	Phone                  string   `json:"phone"`
	Address1               string   `json:"address1"`
	Address2               string   `json:"address2"`
	City                   string   `json:"city"`
	State                  string   `json:"state"`
	Zipcode                string   `json:"zipcode"`
	County                 string   `json:"county"`
	Aka                    string   `json:"aka"`
	DateCreated            string   `json:"date_created"`
	BallotProposition      string   `json:"ballot_proposition"`
	BallotPosition         string   `json:"ballot_position"`
	AffiliatedOrganization string   `json:"affiliated_organization"`
	AssociatedPeople       []Person `json:"associated_people"`
}
