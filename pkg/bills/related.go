package bills

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/ident"
)

// relationReasons classify the publisher's free-text relationship type.
// The first match wins.
var relationReasons = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)^rule related|ruled by`), "ruled-by"},
	{regexp.MustCompile(`(?i)^rule\b|provides for consideration`), "rule"},
	{regexp.MustCompile(`(?i)identical`), "identical"},
	{regexp.MustCompile(`(?i)^related (bill|document)|procedurally.related|text similarities`), "related"},
	{regexp.MustCompile(`(?i)supersede`), "supersedes"},
	{regexp.MustCompile(`(?i)included in`), "included-in"},
	{regexp.MustCompile(`(?i)\bincludes\b`), "includes"},
	{regexp.MustCompile(`(?i)caused action by`), "caused-action-by"},
	{regexp.MustCompile(`(?i)action (?:on this (?:bill|measure) )?(?:was )?caused by`), "action-caused-by"},
	{regexp.MustCompile(`(?i)caused action`), "caused-action"},
}

func relationReason(text string) string {
	for _, r := range relationReasons {
		if r.re.MatchString(text) {
			return r.reason
		}
	}
	return "unknown"
}

func relatedBillsFor(items []sourceRelated) ([]RelatedBill, error) {
	out := []RelatedBill{}
	for _, it := range items {
		typ := ident.NormalizeBillType(it.Type)
		if typ == "" {
			return nil, fmt.Errorf("related bill: unknown bill type %q", it.Type)
		}
		rb := RelatedBill{
			BillID: fmt.Sprintf("%s%s-%s", typ, strings.TrimSpace(it.Number), strings.TrimSpace(it.Congress)),
			Type:   "bill",
			Reason: "unknown",
		}
		if len(it.Details) > 0 {
			rb.Reason = relationReason(it.Details[0].Type)
			rb.IdentifiedBy = it.Details[0].IdentifiedBy
		}
		out = append(out, rb)
	}
	return out, nil
}

func amendmentsFor(items []sourceAmendment) []Amendment {
	out := []Amendment{}
	for _, it := range items {
		typ := strings.ToLower(strings.ReplaceAll(it.Type, ".", ""))
		out = append(out, Amendment{
			AmendmentID:   fmt.Sprintf("%s%s-%s", typ, it.Number, it.Congress),
			AmendmentType: typ,
			Chamber:       typ[:min(1, len(typ))],
			Number:        it.Number,
		})
	}
	return out
}
