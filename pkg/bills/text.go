package bills

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	paragraphEndRe = regexp.MustCompile(`\s*</\s*p\s*>\s*`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
	runOfSpaceRe   = regexp.MustCompile(`[ \t\r\f\v]{2,}`)
)

// summaryText reduces the publisher's summary HTML to plain text, keeping a
// blank line where each paragraph ended.
func summaryText(s string) string {
	s = strings.TrimSpace(paragraphEndRe.ReplaceAllString(s, "\n\n"))
	s = tagRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(runOfSpaceRe.ReplaceAllString(s, " "))
	return html.UnescapeString(s)
}

// summaryFor picks the most recently updated summary.
func summaryFor(items []sourceSummary) *Summary {
	if len(items) == 0 {
		return nil
	}
	latest := items[0]
	for _, it := range items[1:] {
		if it.UpdateDate > latest.UpdateDate {
			latest = it
		}
	}
	as := latest.ActionDesc
	if as == "" {
		as = latest.Name
	}
	return &Summary{As: as, Date: latest.UpdateDate, Text: summaryText(latest.Text)}
}

// properTopTerms keep their capitalization.
var properTopTerms = map[string]bool{
	"Native Americans": true,
}

// capitalizeTerm upper-cases the first letter and lower-cases the rest.
func capitalizeTerm(s string) string {
	if properTopTerms[s] || s == "" {
		return s
	}
	lower := cases.Lower(language.English).String(s)
	first, rest := firstWord(lower)
	return cases.Title(language.English).String(first) + rest
}

func firstWord(s string) (string, string) {
	if i := strings.IndexAny(s, " ,-"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func subjectsFor(src *Source) (*string, []string) {
	out := []string{}
	var top *string
	if pa := strings.TrimSpace(src.policyArea()); pa != "" {
		t := capitalizeTerm(pa)
		top = &t
		out = append(out, t)
	}
	for _, s := range src.subjects() {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return top, out
}
