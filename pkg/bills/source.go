package bills

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrUnsupportedSchema is returned for bill status documents whose schema
// version this package cannot read.
var ErrUnsupportedSchema = errors.New("unsupported bill status schema version")

// Source is a decoded bill status document. Fields that moved between
// schema versions are decoded from both locations; accessors pick the one
// that matches the document's version.
type Source struct {
	XMLName xml.Name   `xml:"billStatus"`
	Version string     `xml:"version"`
	Bill    sourceBill `xml:"bill"`

	modern bool
}

type sourceBill struct {
	Number         string `xml:"number"`
	BillNumber     string `xml:"billNumber"`
	Type           string `xml:"type"`
	BillType       string `xml:"billType"`
	Congress       string `xml:"congress"`
	IntroducedDate string `xml:"introducedDate"`
	UpdateDate     string `xml:"updateDate"`

	Committees       []sourceCommittee `xml:"committees>item"`
	LegacyCommittees []sourceCommittee `xml:"committees>billCommittees>item"`
	CommitteeReports []string          `xml:"committeeReports>committeeReport>citation"`
	RelatedBills     []sourceRelated   `xml:"relatedBills>item"`
	Actions          []sourceAction    `xml:"actions>item"`
	Sponsors         []sourceSponsor   `xml:"sponsors>item"`
	Cosponsors       []sourceSponsor   `xml:"cosponsors>item"`

	PolicyArea       string            `xml:"policyArea>name"`
	Subjects         []string          `xml:"subjects>legislativeSubjects>item>name"`
	LegacyPolicyArea string            `xml:"subjects>billSubjects>policyArea>name"`
	LegacySubjects   []string          `xml:"subjects>billSubjects>legislativeSubjects>item>name"`
	Summaries        []sourceSummary   `xml:"summaries>summary"`
	LegacySummaries  []sourceSummary   `xml:"summaries>billSummaries>item"`
	Titles           []sourceTitle     `xml:"titles>item"`
	Amendments       []sourceAmendment `xml:"amendments>amendment"`
}

type sourceCommittee struct {
	SystemCode    string            `xml:"systemCode"`
	Name          string            `xml:"name"`
	Chamber       string            `xml:"chamber"`
	Activities    []string          `xml:"activities>item>name"`
	Subcommittees []sourceCommittee `xml:"subcommittees>item"`
}

type sourceRelated struct {
	Type     string `xml:"type"`
	Number   string `xml:"number"`
	Congress string `xml:"congress"`
	Details  []struct {
		Type         string `xml:"type"`
		IdentifiedBy string `xml:"identifiedBy"`
	} `xml:"relationshipDetails>item"`
}

type sourceAction struct {
	ActionDate string   `xml:"actionDate"`
	ActionTime string   `xml:"actionTime"`
	Text       string   `xml:"text"`
	ActionCode string   `xml:"actionCode"`
	SourceCode string   `xml:"sourceSystem>code"`
	SourceName string   `xml:"sourceSystem>name"`
	Committees []string `xml:"committees>item>systemCode"`
	Links      []Link   `xml:"links>link"`
}

type sourceSponsor struct {
	BioguideID      string `xml:"bioguideId"`
	FullName        string `xml:"fullName"`
	State           string `xml:"state"`
	District        string `xml:"district"`
	ByRequestType   string `xml:"byRequestType"`
	IsByRequest     string `xml:"isByRequest"`
	SponsorshipDate string `xml:"sponsorshipDate"`
	WithdrawnDate   string `xml:"sponsorshipWithdrawnDate"`
	IsOriginal      string `xml:"isOriginalCosponsor"`
}

type sourceSummary struct {
	Name       string `xml:"name"`
	ActionDesc string `xml:"actionDesc"`
	UpdateDate string `xml:"updateDate"`
	Text       string `xml:"text"`
}

type sourceTitle struct {
	TitleType string `xml:"titleType"`
	Title     string `xml:"title"`
}

type sourceAmendment struct {
	Type     string `xml:"type"`
	Number   string `xml:"number"`
	Congress string `xml:"congress"`
}

var (
	modernSchema = mustConstraint(">= 3.0.0")
	legacySchema = mustConstraint(">= 1.0.0, < 3.0.0")
)

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

// ParseSource decodes a bill status document and classifies its schema
// version. A missing version is read as 1.0.0.
func ParseSource(data []byte) (*Source, error) {
	var src Source
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&src); err != nil {
		return nil, fmt.Errorf("decode bill status: %w", err)
	}

	raw := strings.TrimSpace(src.Version)
	if raw == "" {
		raw = "1.0.0"
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSchema, raw)
	}
	switch {
	case modernSchema.Check(v):
		src.modern = true
	case legacySchema.Check(v):
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSchema, v)
	}
	return &src, nil
}

func (s *Source) billType() string {
	if s.modern {
		return s.Bill.Type
	}
	return s.Bill.BillType
}

func (s *Source) number() string {
	if s.modern {
		return s.Bill.Number
	}
	return s.Bill.BillNumber
}

func (s *Source) committees() []sourceCommittee {
	if s.modern {
		return s.Bill.Committees
	}
	return s.Bill.LegacyCommittees
}

func (s *Source) policyArea() string {
	if s.modern {
		return s.Bill.PolicyArea
	}
	if s.Bill.LegacyPolicyArea != "" {
		return s.Bill.LegacyPolicyArea
	}
	return s.Bill.PolicyArea
}

func (s *Source) subjects() []string {
	if s.modern {
		return s.Bill.Subjects
	}
	return s.Bill.LegacySubjects
}

func (s *Source) summaries() []sourceSummary {
	if s.modern {
		return s.Bill.Summaries
	}
	return s.Bill.LegacySummaries
}

func (s *Source) byRequest() bool {
	if len(s.Bill.Sponsors) == 0 {
		return false
	}
	sp := s.Bill.Sponsors[0]
	if s.modern {
		return strings.EqualFold(sp.IsByRequest, "Y")
	}
	return strings.TrimSpace(sp.ByRequestType) != ""
}
