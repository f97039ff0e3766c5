// Package ident parses and formats the stable identifiers used for bills,
// bill text versions and roll-call votes.
package ident

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BillTypes lists every bill type code in canonical order.
var BillTypes = []string{"hr", "hres", "hjres", "hconres", "s", "sres", "sjres", "sconres"}

var (
	ErrInvalidBillID = errors.New("invalid bill id")
	ErrInvalidVoteID = errors.New("invalid vote id")
)

const billTypePattern = `(hr|hres|hjres|hconres|s|sres|sjres|sconres)`

var (
	billIDRe        = regexp.MustCompile(`^` + billTypePattern + `(\d+)-(\d+)$`)
	billVersionIDRe = regexp.MustCompile(`^` + billTypePattern + `(\d+)-(\d+)-([a-z0-9]+)$`)
	voteIDRe        = regexp.MustCompile(`^([hs])(\d+)-(\d+)\.(\d{4})$`)
)

// BillID identifies a bill or resolution, e.g. hr3590-111.
type BillID struct {
	Type     string
	Number   int
	Congress int
}

func ParseBillID(s string) (BillID, error) {
	m := billIDRe.FindStringSubmatch(s)
	if m == nil {
		return BillID{}, fmt.Errorf("%w: %q", ErrInvalidBillID, s)
	}
	number, _ := strconv.Atoi(m[2])
	congress, _ := strconv.Atoi(m[3])
	return BillID{Type: m[1], Number: number, Congress: congress}, nil
}

func (b BillID) String() string {
	return fmt.Sprintf("%s%d-%d", b.Type, b.Number, b.Congress)
}

// Chamber returns "h" or "s" for the chamber the bill originated in.
func (b BillID) Chamber() string {
	return b.Type[:1]
}

// IsSimpleResolution reports whether the measure never leaves its chamber.
func (b BillID) IsSimpleResolution() bool {
	return b.Type == "hres" || b.Type == "sres"
}

func (b BillID) IsJointResolution() bool {
	return b.Type == "hjres" || b.Type == "sjres"
}

func (b BillID) IsConcurrentResolution() bool {
	return b.Type == "hconres" || b.Type == "sconres"
}

var citationPrefixes = map[string]string{
	"hr":      "H.R.",
	"hres":    "H.Res.",
	"hjres":   "H.J.Res.",
	"hconres": "H.Con.Res.",
	"s":       "S.",
	"sres":    "S.Res.",
	"sjres":   "S.J.Res.",
	"sconres": "S.Con.Res.",
}

// Citation renders the bill the way floor action text cites it, e.g. "H.R. 3590".
func (b BillID) Citation() string {
	return fmt.Sprintf("%s %d", citationPrefixes[b.Type], b.Number)
}

// BillVersionID identifies one printed text version of a bill, e.g. hr3590-111-enr.
type BillVersionID struct {
	BillID
	Version string
}

func ParseBillVersionID(s string) (BillVersionID, error) {
	m := billVersionIDRe.FindStringSubmatch(s)
	if m == nil {
		return BillVersionID{}, fmt.Errorf("%w: %q", ErrInvalidBillID, s)
	}
	number, _ := strconv.Atoi(m[2])
	congress, _ := strconv.Atoi(m[3])
	return BillVersionID{BillID: BillID{Type: m[1], Number: number, Congress: congress}, Version: m[4]}, nil
}

func (v BillVersionID) String() string {
	return v.BillID.String() + "-" + v.Version
}

// VoteID identifies a roll call, e.g. h768-111.2010.
type VoteID struct {
	Chamber     string
	Number      int
	Congress    int
	SessionYear int
}

func ParseVoteID(s string) (VoteID, error) {
	m := voteIDRe.FindStringSubmatch(s)
	if m == nil {
		return VoteID{}, fmt.Errorf("%w: %q", ErrInvalidVoteID, s)
	}
	number, _ := strconv.Atoi(m[2])
	congress, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[4])
	return VoteID{Chamber: m[1], Number: number, Congress: congress, SessionYear: year}, nil
}

func (v VoteID) String() string {
	return fmt.Sprintf("%s%d-%d.%d", v.Chamber, v.Number, v.Congress, v.SessionYear)
}

// Session returns the 1-based session number within the congress.
func (v VoteID) Session() int {
	return SessionNumber(v.Congress, v.SessionYear)
}

// CongressFirstYear is the calendar year a congress convenes.
func CongressFirstYear(congress int) int {
	return 1789 + 2*(congress-1)
}

// CongressForYear is the congress sitting for most of the given year.
func CongressForYear(year int) int {
	return (year+1)/2 - 894
}

// SessionNumber is year's session index within congress (1 or 2, occasionally 3).
func SessionNumber(congress, year int) int {
	return year - CongressFirstYear(congress) + 1
}

// NormalizeBillType turns publisher spellings ("H.R.", "HJRES", "S.Con.Res.")
// into a canonical type code. It returns "" for anything unrecognized.
func NormalizeBillType(s string) string {
	t := strings.ToLower(s)
	t = strings.NewReplacer(".", "", " ", "").Replace(t)
	for _, known := range BillTypes {
		if t == known {
			return t
		}
	}
	return ""
}

var legacyTypeCodes = map[string]string{
	"hr":      "h",
	"hres":    "hr",
	"hjres":   "hj",
	"hconres": "hc",
	"s":       "s",
	"sres":    "sr",
	"sjres":   "sj",
	"sconres": "sc",
}

// LegacyTypeCode is the type code the legacy XML formats use for a bill
// type, e.g. "hc" for hconres.
func LegacyTypeCode(billType string) string {
	return legacyTypeCodes[billType]
}

var billCitationRe = regexp.MustCompile(`(?i)\b(S\.|H\.)(\s?J\.|\s?R\.|\s?Con\.| ?)(\s?Res\.)*\s?(\d+)`)

// ExtractBillIDs finds every bill cited in text, in order of first mention,
// assuming the citations refer to the given congress.
func ExtractBillIDs(text string, congress int) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range billCitationRe.FindAllStringSubmatch(text, -1) {
		typ := NormalizeBillType(m[1] + m[2] + m[3])
		if typ == "" {
			continue
		}
		number, err := strconv.Atoi(m[4])
		if err != nil {
			continue
		}
		id := BillID{Type: typ, Number: number, Congress: congress}.String()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
