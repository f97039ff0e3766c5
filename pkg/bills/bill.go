// Package bills turns the publisher's bill status documents into bill
// records.
package bills

import "github.com/unitedstates/congress-sub000/pkg/actions"

// Bill is the normalized bill record written to data.json.
type Bill struct {
	BillID   string `json:"bill_id"`
	BillType string `json:"bill_type"`
	Number   string `json:"number"`
	Congress string `json:"congress"`
	URL      string `json:"url"`

	IntroducedAt string      `json:"introduced_at"`
	ByRequest    bool        `json:"by_request"`
	Sponsor      *Sponsor    `json:"sponsor"`
	Cosponsors   []Cosponsor `json:"cosponsors"`

	Actions   []Action       `json:"actions"`
	History   History        `json:"history"`
	Status    actions.Status `json:"status"`
	StatusAt  string         `json:"status_at"`
	EnactedAs *EnactedAs     `json:"enacted_as"`

	Titles        []Title `json:"titles"`
	OfficialTitle *string `json:"official_title"`
	ShortTitle    *string `json:"short_title"`
	PopularTitle  *string `json:"popular_title"`

	Summary         *Summary `json:"summary"`
	SubjectsTopTerm *string  `json:"subjects_top_term"`
	Subjects        []string `json:"subjects"`

	RelatedBills     []RelatedBill `json:"related_bills"`
	Committees       []Committee   `json:"committees"`
	Amendments       []Amendment   `json:"amendments"`
	CommitteeReports []string      `json:"committee_reports"`

	UpdatedAt string `json:"updated_at"`
}

// Sponsor is a bill's sponsor.
type Sponsor struct {
	Title      string `json:"title"`
	Name       string `json:"name"`
	State      string `json:"state"`
	District   string `json:"district,omitempty"`
	BioguideID string `json:"bioguide_id"`
	Type       string `json:"type"`
}

// Cosponsor is a cosponsor with the dates of its sponsorship.
type Cosponsor struct {
	Title             string `json:"title"`
	Name              string `json:"name"`
	State             string `json:"state"`
	District          string `json:"district,omitempty"`
	BioguideID        string `json:"bioguide_id"`
	SponsoredAt       string `json:"sponsored_at"`
	WithdrawnAt       string `json:"withdrawn_at,omitempty"`
	OriginalCosponsor bool   `json:"original_cosponsor"`
}

type Reference struct {
	Type      string `json:"type,omitempty"`
	Reference string `json:"reference"`
}

type Link struct {
	Name string `json:"name" xml:"name"`
	URL  string `json:"url" xml:"url"`
}

// Action is one event in the bill's history. The embedded Fields carry what
// the action parser recognized in the text.
type Action struct {
	ActedAt    string         `json:"acted_at"`
	ActionCode string         `json:"action_code,omitempty"`
	Committees []string       `json:"committees,omitempty"`
	References []Reference    `json:"references"`
	Text       string         `json:"text"`
	Links      []Link         `json:"links,omitempty"`
	Status     actions.Status `json:"status,omitempty"`
	actions.Fields
}

// History summarizes milestones derived from the actions.
type History struct {
	Active                 bool   `json:"active"`
	ActiveAt               string `json:"active_at,omitempty"`
	HousePassageResult     string `json:"house_passage_result,omitempty"`
	HousePassageResultAt   string `json:"house_passage_result_at,omitempty"`
	SenateClotureResult    string `json:"senate_cloture_result,omitempty"`
	SenateClotureResultAt  string `json:"senate_cloture_result_at,omitempty"`
	SenatePassageResult    string `json:"senate_passage_result,omitempty"`
	SenatePassageResultAt  string `json:"senate_passage_result_at,omitempty"`
	Vetoed                 bool   `json:"vetoed"`
	VetoedAt               string `json:"vetoed_at,omitempty"`
	HouseOverrideResult    string `json:"house_override_result,omitempty"`
	HouseOverrideResultAt  string `json:"house_override_result_at,omitempty"`
	SenateOverrideResult   string `json:"senate_override_result,omitempty"`
	SenateOverrideResultAt string `json:"senate_override_result_at,omitempty"`
	AwaitingSignature      bool   `json:"awaiting_signature"`
	AwaitingSignatureSince string `json:"awaiting_signature_since,omitempty"`
	Enacted                bool   `json:"enacted"`
	EnactedAt              string `json:"enacted_at,omitempty"`
}

type EnactedAs struct {
	LawType  string `json:"law_type"`
	Congress string `json:"congress"`
	Number   string `json:"number"`
}

// Title is one of the bill's titles at a legislative stage.
type Title struct {
	Title        string `json:"title"`
	IsForPortion bool   `json:"is_for_portion"`
	As           string `json:"as,omitempty"`
	Type         string `json:"type"`
}

type Summary struct {
	As   string `json:"as"`
	Date string `json:"date"`
	Text string `json:"text"`
}

type RelatedBill struct {
	Reason       string `json:"reason"`
	BillID       string `json:"bill_id"`
	Type         string `json:"type"`
	IdentifiedBy string `json:"identified_by,omitempty"`
}

type Committee struct {
	Committee      string   `json:"committee"`
	CommitteeID    string   `json:"committee_id"`
	Subcommittee   string   `json:"subcommittee,omitempty"`
	SubcommitteeID string   `json:"subcommittee_id,omitempty"`
	Activity       []string `json:"activity"`
}

type Amendment struct {
	AmendmentID   string `json:"amendment_id"`
	AmendmentType string `json:"amendment_type"`
	Chamber       string `json:"chamber"`
	Number        string `json:"number"`
}
