package bills

import (
	"fmt"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/ident"
)

const billStatusURL = "https://www.govinfo.gov/bulkdata/BILLSTATUS/%d/%s/BILLSTATUS-%d%s%d.xml"

// SourceURL is the publisher location of a bill's status document.
func SourceURL(b ident.BillID) string {
	return fmt.Sprintf(billStatusURL, b.Congress, b.Type, b.Congress, b.Type, b.Number)
}

// Transform converts a decoded bill status document into a bill record.
// The result depends only on src.
func Transform(src *Source) (*Bill, error) {
	raw := fmt.Sprintf("%s%s-%s", ident.NormalizeBillType(src.billType()), strings.TrimSpace(src.number()), strings.TrimSpace(src.Bill.Congress))
	id, err := ident.ParseBillID(raw)
	if err != nil {
		return nil, err
	}

	titles, err := titlesFor(src.Bill.Titles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	official := CurrentTitle(titles, "official")
	actionTitle := ""
	if official != nil {
		actionTitle = *official
	}

	sponsor, err := sponsorFor(src.Bill.Sponsors)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	cosponsors, err := cosponsorsFor(src.Bill.Cosponsors)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	committees, err := committeesFor(src.committees())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	related, err := relatedBillsFor(src.Bill.RelatedBills)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	acts, err := actionsFor(id, src.Bill.Actions, actionTitle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	status, statusAt := StatusOf(acts, src.Bill.IntroducedDate)
	top, subjects := subjectsFor(src)

	reports := []string{}
	for _, r := range src.Bill.CommitteeReports {
		if r = strings.TrimSpace(r); r != "" {
			reports = append(reports, r)
		}
	}

	return &Bill{
		BillID:           id.String(),
		BillType:         id.Type,
		Number:           fmt.Sprint(id.Number),
		Congress:         fmt.Sprint(id.Congress),
		URL:              SourceURL(id),
		IntroducedAt:     src.Bill.IntroducedDate,
		ByRequest:        src.byRequest(),
		Sponsor:          sponsor,
		Cosponsors:       cosponsors,
		Actions:          acts,
		History:          historyFor(acts),
		Status:           status,
		StatusAt:         statusAt,
		EnactedAs:        enactedAsFor(acts),
		Titles:           titles,
		OfficialTitle:    official,
		ShortTitle:       CurrentTitle(titles, "short"),
		PopularTitle:     CurrentTitle(titles, "popular"),
		Summary:          summaryFor(src.summaries()),
		SubjectsTopTerm:  top,
		Subjects:         subjects,
		RelatedBills:     related,
		Committees:       committees,
		Amendments:       amendmentsFor(src.Bill.Amendments),
		CommitteeReports: reports,
		UpdatedAt:        src.Bill.UpdateDate,
	}, nil
}
