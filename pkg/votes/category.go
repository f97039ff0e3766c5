package votes

import (
	"regexp"
	"strings"
)

type rule struct {
	re    *regexp.Regexp
	value string
}

// categories is matched against the question in order; the first match
// wins.
var categories = []rule{
	{regexp.MustCompile(`(?i)^(On )?Overriding the Veto`), "veto-override"},
	{regexp.MustCompile(`(?i)Objections of the President Not ?Withstanding`), "veto-override"},
	{regexp.MustCompile(`(?i)^On (the )?Passage`), "passage"},
	{regexp.MustCompile(`(?i)^On (Agreeing to )?the (Joint |Concurrent )?Resolution(, as Amended)?$`), "passage"},
	{regexp.MustCompile(`(?i)^On (the )?Conference Report`), "passage"},
	{regexp.MustCompile(`(?i)^On (the )?Motion to (Concur|Recede)`), "passage"},
	{regexp.MustCompile(`(?i)^On the Bill$`), "passage"},
	{regexp.MustCompile(`(?i)^On the Resolution of Ratification`), "treaty"},
	{regexp.MustCompile(`(?i)^On (Agreeing to )?the Amendment`), "amendment"},
	{regexp.MustCompile(`(?i)^On the Motion to Table( the)? Amendment`), "amendment"},
	{regexp.MustCompile(`(?i)Cloture`), "cloture"},
	{regexp.MustCompile(`(?i)^On the Nomination`), "nomination"},
	{regexp.MustCompile(`(?i)^Guilty or Not Guilty`), "conviction"},
	{regexp.MustCompile(`(?i)^On (the )?Motion to Recommit`), "recommit"},
	{regexp.MustCompile(`(?i)^On (the )?Motion to Suspend the Rules`), "passage-suspension"},
	{regexp.MustCompile(`(?i)^Call of the House|^On the Motion to Instruct the Sergeant at Arms|^QUORUM`), "quorum"},
	{regexp.MustCompile(`(?i)^Election of the Speaker`), "leadership"},
	{regexp.MustCompile(`(?i)^On (the )?(Motion|Question|Ordering|Approving|Agreeing|Consideration|Point|Decision)`), "procedural"},
	{regexp.MustCompile(`(?i)^(On )?(Table|Adjourn|Quorum|Waive)`), "procedural"},
}

// Category classifies a vote by its question text.
func Category(question string) string {
	for _, r := range categories {
		if r.re.MatchString(question) {
			return r.value
		}
	}
	return "unknown"
}

// voteTypes folds the publishers' spellings of the same question.
var voteTypes = []rule{
	{regexp.MustCompile(`(?i)^On Passage( of the Bill)?$`), "On Passage of the Bill"},
	{regexp.MustCompile(`(?i)^On Motion to Suspend the Rules and Pass`), "On Motion to Suspend the Rules and Pass"},
	{regexp.MustCompile(`(?i)^On Motion to Suspend the Rules and Agree`), "On Motion to Suspend the Rules and Agree"},
	{regexp.MustCompile(`(?i)^On (Agreeing to )?the Amendment`), "On the Amendment"},
	{regexp.MustCompile(`(?i)^On (Agreeing to )?the Resolution`), "On the Resolution"},
	{regexp.MustCompile(`(?i)^On (Agreeing to )?the Joint Resolution`), "On the Joint Resolution"},
	{regexp.MustCompile(`(?i)^On (Agreeing to )?the Concurrent Resolution`), "On the Concurrent Resolution"},
	{regexp.MustCompile(`(?i)^On (the )?Motion to Recommit`), "On the Motion to Recommit"},
	{regexp.MustCompile(`(?i)^On (the )?Cloture Motion|^On Cloture on the Motion to Proceed`), "On the Cloture Motion"},
	{regexp.MustCompile(`(?i)^On (the )?Conference Report`), "On the Conference Report"},
}

// NormalizeType maps a question to its canonical vote type, or returns it
// unchanged.
func NormalizeType(question string) string {
	for _, r := range voteTypes {
		if r.re.MatchString(question) {
			return r.value
		}
	}
	return question
}

// houseRequires maps the House vote-type element to a threshold.
var houseRequires = map[string]string{
	"YEA-AND-NAY":       "1/2",
	"1/2 YEA-AND-NAY":   "1/2",
	"2/3 YEA-AND-NAY":   "2/3",
	"3/5 YEA-AND-NAY":   "3/5",
	"RECORDED VOTE":     "1/2",
	"1/2 RECORDED VOTE": "1/2",
	"2/3 RECORDED VOTE": "2/3",
	"3/5 RECORDED VOTE": "3/5",
	"QUORUM":            "QUORUM",
}

// CanonicalOptions is the set of options every vote of the given chamber
// and question class carries, even when nobody chose them. House votes are
// classed by their vote-type element; pass "" for Senate votes.
func CanonicalOptions(chamber, question, houseVoteType string) []string {
	switch {
	case question == "Guilty or Not Guilty":
		return []string{"Guilty", "Not Guilty", "Present", "Not Voting"}
	case chamber == Senate:
		return []string{"Yea", "Nay", "Present", "Not Voting"}
	case strings.Contains(houseVoteType, "YEA-AND-NAY"):
		return []string{"Yea", "Nay", "Present", "Not Voting"}
	default:
		return []string{"Aye", "No", "Present", "Not Voting"}
	}
}

// hasCandidates reports questions whose options are the people voted for.
func hasCandidates(question string) bool {
	return question == "Election of the Speaker" || question == "Call of the House"
}
