package bills

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/actions"
	"github.com/unitedstates/congress-sub000/pkg/ident"
)

type legacyBill struct {
	XMLName          xml.Name          `xml:"bill"`
	Session          string            `xml:"session,attr"`
	Type             string            `xml:"type,attr"`
	Number           string            `xml:"number,attr"`
	Updated          string            `xml:"updated,attr"`
	State            legacyDated       `xml:"state"`
	Introduced       legacyDated       `xml:"introduced"`
	Titles           []legacyTitle     `xml:"titles>title"`
	Sponsor          *legacySponsor    `xml:"sponsor"`
	Cosponsors       []legacySponsor   `xml:"cosponsors>cosponsor"`
	Actions          []legacyAction    `xml:"actions>action"`
	Committees       []legacyCommittee `xml:"committees>committee"`
	RelatedBills     []legacyRelated   `xml:"relatedbills>bill"`
	Subjects         []legacyTerm      `xml:"subjects>term"`
	Amendments       []legacyAmendment `xml:"amendments>amendment"`
	CommitteeReports []string          `xml:"committee-reports>report"`
	Summary          *legacySummary    `xml:"summary"`
}

type legacyDated struct {
	Value    string `xml:",chardata"`
	DateTime string `xml:"datetime,attr"`
}

type legacyTitle struct {
	Value   string `xml:",chardata"`
	Type    string `xml:"type,attr"`
	As      string `xml:"as,attr,omitempty"`
	Partial string `xml:"partial,attr,omitempty"`
}

type legacySponsor struct {
	BioguideID string `xml:"bioguide_id,attr"`
	Joined     string `xml:"joined,attr,omitempty"`
	Withdrawn  string `xml:"withdrawn,attr,omitempty"`
}

// legacyAction is rendered under the element name of its action type.
type legacyAction struct {
	XMLName    xml.Name
	DateTime   string            `xml:"datetime,attr"`
	State      string            `xml:"state,attr,omitempty"`
	How        string            `xml:"how,attr,omitempty"`
	VoteType   string            `xml:"type,attr,omitempty"`
	Roll       string            `xml:"roll,attr,omitempty"`
	Where      string            `xml:"where,attr,omitempty"`
	Result     string            `xml:"result,attr,omitempty"`
	Suspension string            `xml:"suspension,attr,omitempty"`
	Calendar   string            `xml:"calendar,attr,omitempty"`
	Under      string            `xml:"under,attr,omitempty"`
	Number     string            `xml:"number,attr,omitempty"`
	Text       string            `xml:"text"`
	Committees []legacyCode      `xml:"committee"`
	References []legacyReference `xml:"reference"`
}

type legacyCode struct {
	Code string `xml:"code,attr"`
}

type legacyReference struct {
	Ref   string `xml:"ref,attr"`
	Label string `xml:"label,attr,omitempty"`
}

type legacyCommittee struct {
	Code         string `xml:"code,attr"`
	Name         string `xml:"name,attr"`
	Subcommittee string `xml:"subcommittee,attr,omitempty"`
	Activity     string `xml:"activity,attr"`
}

type legacyRelated struct {
	Relation string `xml:"relation,attr"`
	Session  string `xml:"session,attr"`
	Type     string `xml:"type,attr"`
	Number   string `xml:"number,attr"`
}

type legacyTerm struct {
	Name string `xml:"name,attr"`
}

type legacyAmendment struct {
	Number string `xml:"number,attr"`
}

type legacySummary struct {
	Value  string `xml:",chardata"`
	Date   string `xml:"date,attr"`
	Status string `xml:"status,attr"`
}

var legacyActionElements = map[string]bool{
	actions.TypeVote:        true,
	actions.TypeVoteAux:     true,
	actions.TypeCalendar:    true,
	actions.TypeToPresident: true,
	actions.TypeSigned:      true,
	actions.TypeEnacted:     true,
	actions.TypeVetoed:      true,
}

func legacyActionFor(a Action) legacyAction {
	name := "action"
	if legacyActionElements[a.Type] {
		name = a.Type
	}
	la := legacyAction{
		XMLName:  xml.Name{Local: name},
		DateTime: a.ActedAt,
		State:    string(a.Status),
		Text:     a.Text,
	}
	switch {
	case a.IsVote():
		la.How, la.VoteType, la.Roll = a.How, a.VoteType, a.Roll
		la.Where, la.Result = a.Chamber, a.Result
		if a.Suspension != nil && *a.Suspension {
			la.Suspension = "1"
		}
	case a.Type == actions.TypeCalendar:
		la.Calendar, la.Under, la.Number = a.Calendar, a.Under, a.Number
	case a.Type == actions.TypeEnacted:
		la.VoteType = "law"
		la.Number = a.Congress + "-" + a.Number
	}
	for _, c := range a.Committees {
		la.Committees = append(la.Committees, legacyCode{Code: c})
	}
	for _, r := range a.References {
		la.References = append(la.References, legacyReference{Ref: r.Reference, Label: r.Type})
	}
	return la
}

// EncodeLegacyXML renders the bill in the legacy data.xml format.
func EncodeLegacyXML(b *Bill) ([]byte, error) {
	lb := legacyBill{
		Session:          b.Congress,
		Type:             ident.LegacyTypeCode(b.BillType),
		Number:           b.Number,
		Updated:          b.UpdatedAt,
		State:            legacyDated{Value: string(b.Status), DateTime: b.StatusAt},
		Introduced:       legacyDated{DateTime: b.IntroducedAt},
		CommitteeReports: b.CommitteeReports,
	}
	for _, t := range b.Titles {
		lt := legacyTitle{Value: t.Title, Type: t.Type, As: t.As}
		if t.IsForPortion {
			lt.Partial = "1"
		}
		lb.Titles = append(lb.Titles, lt)
	}
	if b.Sponsor != nil {
		lb.Sponsor = &legacySponsor{BioguideID: b.Sponsor.BioguideID}
	}
	for _, c := range b.Cosponsors {
		lb.Cosponsors = append(lb.Cosponsors, legacySponsor{BioguideID: c.BioguideID, Joined: c.SponsoredAt, Withdrawn: c.WithdrawnAt})
	}
	for _, a := range b.Actions {
		lb.Actions = append(lb.Actions, legacyActionFor(a))
	}
	for _, c := range b.Committees {
		lb.Committees = append(lb.Committees, legacyCommittee{
			Code:         c.CommitteeID + c.SubcommitteeID,
			Name:         c.Committee,
			Subcommittee: c.Subcommittee,
			Activity:     strings.Join(c.Activity, ", "),
		})
	}
	for _, rb := range b.RelatedBills {
		id, err := ident.ParseBillID(rb.BillID)
		if err != nil {
			return nil, fmt.Errorf("related bill: %w", err)
		}
		lb.RelatedBills = append(lb.RelatedBills, legacyRelated{
			Relation: rb.Reason,
			Session:  fmt.Sprint(id.Congress),
			Type:     ident.LegacyTypeCode(id.Type),
			Number:   fmt.Sprint(id.Number),
		})
	}
	for _, s := range b.Subjects {
		lb.Subjects = append(lb.Subjects, legacyTerm{Name: s})
	}
	for _, am := range b.Amendments {
		lb.Amendments = append(lb.Amendments, legacyAmendment{Number: am.Chamber + am.Number})
	}
	if b.Summary != nil {
		lb.Summary = &legacySummary{Value: b.Summary.Text, Date: b.Summary.Date, Status: b.Summary.As}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(lb); err != nil {
		return nil, fmt.Errorf("encode legacy xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
