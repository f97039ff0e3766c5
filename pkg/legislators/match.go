package legislators

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// partySwitchers are last names whose roll-call party can disagree with
// the party recorded for the term.
var partySwitchers = []string{
	"Laughlin", "Crenshaw", "Goode", "Martinez", "Parker",
	"Emerson", "Tauzin", "Hayes", "Deal", "Forbes",
}

func termMatches(t *Term, q Query) bool {
	// ISO dates compare as strings.
	if t.Start > q.When || t.End < q.When {
		return false
	}
	if t.Type != q.RoleType || t.State != q.State {
		return false
	}
	if q.Party != "" && !strings.HasPrefix(t.Party, q.Party) && !slices.Contains(partySwitchers, q.Name) {
		return false
	}
	return true
}

// fold decomposes s and drops what is not ASCII, so "Velázquez" reads as
// "Velazquez". Hyphens become spaces.
func fold(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// nameMatches compares a roll-call name against the current name and the
// other names valid on when. The last name may be one word of a compound
// surname; a first name may match the first name, the nickname or the
// initial.
func nameMatches(moc *Legislator, name, when string) bool {
	parts := strings.SplitN(fold(name), ", ", 2)

	records := []OtherName{{First: moc.Name.First, Last: moc.Name.Last}}
	records = append(records, moc.OtherNames...)
	for i, rec := range records {
		if i > 0 {
			if rec.Start != "" && rec.Start > when {
				continue
			}
			if rec.End != "" && rec.End < when {
				continue
			}
		}
		first, last := moc.Name.First, moc.Name.Last
		if rec.First != "" {
			first = rec.First
		}
		if rec.Last != "" {
			last = rec.Last
		}

		last = fold(last)
		if parts[0] != last && !slices.Contains(strings.Split(last, " "), parts[0]) {
			continue
		}
		if len(parts) == 2 {
			first = fold(first)
			firsts := []string{first, fold(moc.Name.Nickname)}
			if first != "" {
				firsts = append(firsts, first[:1]+".")
			}
			given := parts[1]
			if !slices.Contains(firsts, given) && !slices.Contains(firsts, strings.SplitN(given, " ", 2)[0]) {
				continue
			}
		}
		return true
	}
	return false
}
