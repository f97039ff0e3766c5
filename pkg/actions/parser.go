// Package actions classifies the free-text lines of a bill's legislative
// history and drives the bill status state machine.
package actions

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/ident"
)

// input is what every matcher sees.
type input struct {
	line  string
	prev  Status
	bill  ident.BillID
	title string
}

// match is a matcher's contribution. ok is false when the matcher did not
// recognize the line.
type match struct {
	fields Fields
	status Status
	ok     bool
}

type matcher func(in input) (match, error)

// matchers run in priority order. Parse stops after the first one that
// emits a status.
var matchers = []matcher{
	matchHouseVote,
	matchHouseDeemed,
	matchHouseSuspensionList,
	matchHouseTable,
	matchSenateVote,
	matchMeasurePassed,
	matchOldPingpong,
	matchCalendar,
	matchOrderedReported,
	matchReported,
	matchHearings,
	matchDischarged,
	matchToPresident,
	matchSigned,
	matchPocketVeto,
	matchVeto,
	matchTenDayRule,
	matchLaw,
	matchReferral,
}

var amendmentLineRe = regexp.MustCompile(`(?i)^(H|S)\.Amdt\.(\d+)`)

// Parse classifies one action line. prev is the bill's status before the
// action. It returns nil fields for lines that belong to an amendment
// rather than the bill, and an empty status when the line does not move the
// bill through the state machine.
func Parse(text string, prev Status, bill ident.BillID, title string) (*Fields, Status, error) {
	if amendmentLineRe.MatchString(text) {
		return nil, "", nil
	}
	in := input{line: text, prev: prev, bill: bill, title: title}

	var out Fields
	var status Status
	for _, m := range matchers {
		res, err := m(in)
		if err != nil {
			var ie *IntegrityError
			if errors.As(err, &ie) && ie.BillID == "" {
				ie.BillID, ie.Text = bill.String(), text
			}
			return nil, "", err
		}
		if !res.ok {
			continue
		}
		out.merge(res.fields)
		if res.status != "" {
			status = res.status
			break
		}
	}
	if out.Type == "" {
		out.Type = TypeAction
	}

	self := bill.String()
	for _, id := range ident.ExtractBillIDs(text, bill.Congress) {
		if id != self {
			out.BillIDs = append(out.BillIDs, id)
		}
	}
	return &out, status, nil
}

var (
	rollRe       = regexp.MustCompile(`(?i)\((Roll no\.|Record Vote No:) (\d+)\)`)
	senateRollRe = regexp.MustCompile(`(?i)Record Vote (No|Number): (\d+)`)
)

func boolPtr(b bool) *bool { return &b }

// voteStatus fills in the result of the transition table for a vote match.
func voteStatus(in input, f Fields, suspension bool) (match, error) {
	st, err := NewStatusAfterVote(VoteOutcome{
		VoteType:   f.VoteType,
		Passed:     f.Result == "pass",
		Chamber:    f.Chamber,
		BillType:   in.bill.Type,
		Suspension: suspension,
		AsAmended:  f.AsAmended,
		Title:      in.title,
		Prev:       in.prev,
	})
	if err != nil {
		return match{}, err
	}
	return match{fields: f, status: st, ok: true}, nil
}

var houseVoteRe = regexp.MustCompile(`(?i)(` + strings.Join([]string{
	`On passage`,
	`Passed House`,
	`Two-thirds of the Members present having voted in the affirmative the bill is passed,?`,
	`On motion to suspend the rules and pass the (?:bill|resolution)`,
	`On agreeing to the (?:resolution|conference report)`,
	`On motion to suspend the rules and agree to the (?:resolution|conference report)`,
	`House Agreed to Senate Amendments.*?`,
	`On motion (?:that )?the House (?:suspend the rules and )?(?:agree(?: with an amendment)? to|concur in) the Senate amendments?(?: to the House amendments?| to the Senate amendments?)*`,
}, "|") + `)` +
	`(, the objections of the President to the contrary notwithstanding.?)?` +
	`(, as amended| \(Amended\))?` +
	`\.? (Passed|Failed|Agreed to|Rejected)?` +
	` ?(by voice vote|without objection|by (?:the Yeas and Nays?|Yea-Nay Vote|recorded vote)` +
	`(?::? \(2/3 required\))?: (?:\d+ ?- ?\d+(?:, \d+ Present)? [ \)]*)?\((?:Roll no\.|Record Vote No:) \d+\))`)

var (
	houseAgreedRe   = regexp.MustCompile(`(?i)Passed House|House Agreed to`)
	prevailedRe     = regexp.MustCompile(`(?i)(ayes|yeas) had prevailed`)
	passAgreedRe    = regexp.MustCompile(`(?i)Pass|Agreed`)
	housePingpongRe = regexp.MustCompile(`(?i)(agree (with an amendment )?to|concur in) the Senate amendment`)
	conferenceRe    = regexp.MustCompile(`(?i)conference report`)
)

func matchHouseVote(in input) (match, error) {
	line := strings.ReplaceAll(in.line, ", the Passed", ", Passed")
	m := houseVoteRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, nil
	}
	motion, override, amended, passFail, how := m[1], m[2] != "", m[3] != "", m[4], m[5]

	result := "fail"
	switch {
	case houseAgreedRe.MatchString(motion), prevailedRe.MatchString(line), passAgreedRe.MatchString(passFail):
		result = "pass"
	}
	if strings.Contains(motion, "Two-thirds of the Members present") {
		override = true
	}

	var voteType string
	switch {
	case override:
		voteType = VoteOverride
	case housePingpongRe.MatchString(line):
		voteType = VotePingpong
	case conferenceRe.MatchString(line):
		voteType = VoteConference
	case in.bill.Chamber() == "h":
		voteType = VoteOriginating
	default:
		voteType = VoteSecond
	}

	f := Fields{Type: TypeVote, VoteType: voteType, Chamber: "h", How: how, Result: result}
	if rm := rollRe.FindStringSubmatch(how); rm != nil {
		f.How, f.Roll = "roll", rm[2]
	}
	suspension := f.Roll != "" && strings.Contains(motion, "On motion to suspend the rules")
	if suspension {
		f.Suspension = boolPtr(true)
	}
	f.AsAmended = amended || strings.Contains(motion, "the House agree with an amendment")
	return voteStatus(in, f, suspension)
}

var houseDeemedRe = regexp.MustCompile(`(?i)Passed House pursuant to|House agreed to Senate amendment (with amendment )?pursuant to`)

func matchHouseDeemed(in input) (match, error) {
	m := houseDeemedRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	voteType := VoteSecond
	if in.bill.Chamber() == "h" {
		voteType = VoteOriginating
	}
	if strings.Contains(in.line, "agreed to Senate amendment") {
		voteType = VotePingpong
	}
	f := Fields{Type: TypeVote, VoteType: voteType, Chamber: "h", How: "by special rule", Result: "pass", AsAmended: m[1] != ""}
	return voteStatus(in, f, false)
}

var houseSuspensionListRe = regexp.MustCompile(`(?i)^On motion to suspend the rules and pass the (?:bills|resolutions|measures)(.*?)\.? (Agreed to|Failed) ` +
	`(by voice vote|without objection|by (?:the Yeas and Nays|recorded vote)(?::? \(2/3 required\))?: (?:\d+ ?- ?\d+(?:, \d+ Present)? [ \)]*)?\(Roll no\. (\d+)\))`)

// matchHouseSuspensionList handles one motion covering several measures. The
// measures are listed separated by semicolons, each optionally followed by
// "as amended".
func matchHouseSuspensionList(in input) (match, error) {
	m := houseSuspensionListRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	list := m[1]
	prefix, number, _ := strings.Cut(in.bill.Citation(), " ")
	citation := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(prefix) + `\s?` + number + `\b`)
	loc := citation.FindStringIndex(list)
	if loc == nil {
		return match{}, nil
	}
	item := list[loc[1]:]
	if i := strings.Index(item, ";"); i >= 0 {
		item = item[:i]
	}
	head := strings.SplitN(list, ":", 2)[0]

	voteType := VoteSecond
	if in.bill.Chamber() == "h" {
		voteType = VoteOriginating
	}
	f := Fields{Type: TypeVote, VoteType: voteType, Chamber: "h", How: m[3], Result: "fail"}
	if strings.EqualFold(m[2], "Agreed to") {
		f.Result = "pass"
	}
	if m[4] != "" {
		f.How, f.Roll = "roll", m[4]
	}
	f.Suspension = boolPtr(true)
	f.AsAmended = strings.Contains(item, "as amended") || strings.Contains(head, "as amended")
	return voteStatus(in, f, true)
}

var houseTableRe = regexp.MustCompile(`(?i)On motion to table the measure Agreed to` +
	` ?(by voice vote|without objection|by (?:the Yeas and Nays|Yea-Nay Vote|recorded vote)` +
	`: (?:\d+ - \d+(?:, \d+ Present)? [ \)]*)?\((?:Roll no\.|Record Vote No:) \d+\))`)

// matchHouseTable records an agreed motion to table the measure, which
// disposes of it adversely. Only a motion in the originating chamber can be
// classified.
func matchHouseTable(in input) (match, error) {
	m := houseTableRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	if in.prev != Introduced && in.bill.Type != "hres" {
		return match{}, &IntegrityError{Reason: "cannot tell whether motion to table was in the originating chamber from status " + string(in.prev)}
	}
	f := Fields{Type: TypeVote, VoteType: VoteOriginating, Chamber: "h", How: m[1], Result: "fail"}
	if rm := rollRe.FindStringSubmatch(f.How); rm != nil {
		f.How, f.Roll = "roll", rm[2]
	}
	return voteStatus(in, f, false)
}

var senateVoteRe = regexp.MustCompile(`(?i)(` + strings.Join([]string{
	`Passed Senate`,
	`Failed of passage in Senate`,
	`Disagreed to in Senate`,
	`Resolution agreed to in Senate`,
	`Received in the Senate, considered, and agreed to`,
	`Submitted in the Senate, considered, and agreed to`,
	`Introduced in the Senate, read twice, considered, read the third time, and passed`,
	`Received in the Senate, read twice, considered, read the third time, and passed`,
	`Senate agreed to conference report`,
	`Cloture \S*\s?on the motion to proceed .*?not invoked in Senate`,
	`Cloture(?: motion)? on the motion to proceed to the (?:bill|measure) invoked in Senate`,
	`Cloture invoked in Senate`,
	`Cloture on (?:the motion to (?:proceed to |concur in )(?:the House amendment (?:to the Senate amendment )?to )?)(?:the bill|H\.R\. .*) (?:not )?invoked in Senate`,
	`(?:Introduced|Received|Submitted) in the Senate, (?:read twice, |considered, |read the third time, )+and (?:passed|agreed to)`,
	`Senate agreed to (?:the )?House amendment`,
	`Senate concurred in (?:the )?House amendment`,
	`Senate sustained the President's veto`,
	`Senate (?:motion to )?override President's veto`,
	`Passed Senate over veto`,
	`Senate receded from its amendment`,
}, "|") + `)` +
	`(,?.*,?) ` +
	`(without objection|by Unanimous Consent|by Voice Vote|(?:by )?Yea-Nay(?: Vote)?\. \d+\s*-\s*\d+\. Record Vote (?:No|Number): \d+)`)

var (
	senateFailRe     = regexp.MustCompile(`(?i)disagreed|not invoked|sustained`)
	senatePassRe     = regexp.MustCompile(`(?i)passed|agreed|concurred|invoked|overrode|override|receded`)
	senateOverrideRe = regexp.MustCompile(`(?i)over veto|override|veto`)
	senateClotureRe  = regexp.MustCompile(`(?i)cloture`)
	senatePingpongRe = regexp.MustCompile(`(?i)Senate agreed to (the )?House amendment|Senate concurred in (the )?House amendment|Senate receded`)
	amendedExtraRe   = regexp.MustCompile(`(?i)with amendments|with an amendment`)
)

func matchSenateVote(in input) (match, error) {
	line := strings.ReplaceAll(in.line, "  ", " ")
	m := senateVoteRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, nil
	}
	motion, extra, how := m[1], m[2], m[3]

	result := "fail"
	if !senateFailRe.MatchString(motion) && senatePassRe.MatchString(motion) {
		result = "pass"
	}

	actionType := TypeVote
	var voteType string
	switch {
	case senateOverrideRe.MatchString(motion):
		voteType = VoteOverride
	case conferenceRe.MatchString(motion):
		voteType = VoteConference
	case senateClotureRe.MatchString(motion):
		voteType = VoteCloture
		actionType = TypeVoteAux
	case senatePingpongRe.MatchString(motion):
		voteType = VotePingpong
	case in.bill.Chamber() == "s":
		voteType = VoteOriginating
	default:
		voteType = VoteSecond
	}

	f := Fields{Type: actionType, VoteType: voteType, Chamber: "s", How: how, Result: result}
	if rm := senateRollRe.FindStringSubmatch(how); rm != nil {
		f.How, f.Roll = "roll", rm[2]
	}
	f.AsAmended = amendedExtraRe.MatchString(extra)
	return voteStatus(in, f, false)
}

var measurePassedRe = regexp.MustCompile(`(?i)Measure passed (House|Senate)(, amended(?: \(.*?\)\.)?)?(?:,? in lieu[^,]*)?(?:, roll call #(\d+) \(\d+-\d+\))?`)

func matchMeasurePassed(in input) (match, error) {
	m := measurePassedRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	chamber := strings.ToLower(m[1][:1])
	voteType := VoteSecond
	if in.bill.Chamber() == chamber {
		voteType = VoteOriginating
	}
	f := Fields{Type: TypeVote, VoteType: voteType, Chamber: chamber, How: "(method not recorded)", Result: "pass", AsAmended: m[2] != ""}
	if m[3] != "" {
		f.How, f.Roll = "roll", m[3]
	}
	return voteStatus(in, f, false)
}

var oldPingpongRe = regexp.MustCompile(`(?i)(House|Senate) agreed to (?:House|Senate) amendments?( with an amendment)?( under Suspension of the Rules)?(?:, roll call #(\d+) \(\d+-\d+\))?\.`)

func matchOldPingpong(in input) (match, error) {
	m := oldPingpongRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	f := Fields{
		Type:       TypeVote,
		VoteType:   VotePingpong,
		Chamber:    strings.ToLower(m[1][:1]),
		How:        "(method not recorded)",
		Result:     "pass",
		Suspension: boolPtr(m[3] != ""),
		AsAmended:  m[2] != "",
	}
	if m[4] != "" {
		f.How, f.Roll = "roll", m[4]
	}
	return voteStatus(in, f, false)
}

func reportedFrom(prev Status) Status {
	if prev == Introduced || prev == Referred {
		return Reported
	}
	return ""
}

var calendarRe = regexp.MustCompile(`(?i)Placed on (?:the )?([\w ]+) Calendar(?: under ([\w ]+))?[,\.] Calendar No\. (\d+)\.|Committee Agreed to Seek Consideration Under Suspension of the Rules`)

func matchCalendar(in input) (match, error) {
	m := calendarRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	f := Fields{Type: TypeCalendar, Calendar: m[1], Under: m[2], Number: m[3]}
	return match{fields: f, status: reportedFrom(in.prev), ok: true}, nil
}

var orderedReportedRe = regexp.MustCompile(`(?i)(?:Committee on (.*?)\. )?Ordered to be Reported`)

func matchOrderedReported(in input) (match, error) {
	m := orderedReportedRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	f := Fields{Type: TypeOrderedReported, Committee: m[1]}
	return match{fields: f, status: reportedFrom(in.prev), ok: true}, nil
}

var (
	reportedRe       = regexp.MustCompile(`(?i)Committee on (.*)\. Reported by`)
	reportedSenateRe = regexp.MustCompile(`(?i)Reported to Senate from the (.*?)( \(without written report\))?\.`)
)

func matchReported(in input) (match, error) {
	m := reportedRe.FindStringSubmatch(in.line)
	if m == nil {
		m = reportedSenateRe.FindStringSubmatch(in.line)
	}
	if m == nil {
		return match{}, nil
	}
	f := Fields{Type: TypeReported, Committee: m[1]}
	return match{fields: f, status: reportedFrom(in.prev), ok: true}, nil
}

var hearingsRe = regexp.MustCompile(`(?i)(Committee on .*?)\. Hearings held`)

func matchHearings(in input) (match, error) {
	m := hearingsRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	return match{fields: Fields{Type: TypeHearings, Committee: m[1]}, ok: true}, nil
}

var dischargedRe = regexp.MustCompile(`(?i)Committee on (.*)\. Discharged`)

func matchDischarged(in input) (match, error) {
	m := dischargedRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	f := Fields{Type: TypeDischarged, Committee: m[1]}
	return match{fields: f, status: reportedFrom(in.prev), ok: true}, nil
}

var toPresidentRe = regexp.MustCompile(`(?i)Cleared for White House|Presented to President`)

func matchToPresident(in input) (match, error) {
	if !toPresidentRe.MatchString(in.line) {
		return match{}, nil
	}
	return match{fields: Fields{Type: TypeToPresident}, ok: true}, nil
}

var signedRe = regexp.MustCompile(`(?i)Signed by President`)

func matchSigned(in input) (match, error) {
	if !signedRe.MatchString(in.line) {
		return match{}, nil
	}
	return match{fields: Fields{Type: TypeSigned}, status: EnactedSigned, ok: true}, nil
}

var pocketVetoRe = regexp.MustCompile(`(?i)Pocket Vetoed by President`)

func matchPocketVeto(in input) (match, error) {
	if !pocketVetoRe.MatchString(in.line) {
		return match{}, nil
	}
	return match{fields: Fields{Type: TypeVetoed, Pocket: true}, status: VetoedPocket, ok: true}, nil
}

var vetoRe = regexp.MustCompile(`(?i)Vetoed by President`)

func matchVeto(in input) (match, error) {
	if !vetoRe.MatchString(in.line) {
		return match{}, nil
	}
	return match{fields: Fields{Type: TypeVetoed}, status: ProvKillVeto, ok: true}, nil
}

var tenDayRuleRe = regexp.MustCompile(`(?i)Sent to Archivist of the United States unsigned`)

func matchTenDayRule(in input) (match, error) {
	if !tenDayRuleRe.MatchString(in.line) {
		return match{}, nil
	}
	return match{status: EnactedTenDayRule, ok: true}, nil
}

var lawRe = regexp.MustCompile(`(?i)^(?:Became )?(Public|Private) Law(?: No:)? ([\d\-]+)\.`)

var finalEnactedStates = []Status{EnactedSigned, EnactedVetoOverride, EnactedTenDayRule}

func matchLaw(in input) (match, error) {
	m := lawRe.FindStringSubmatch(in.line)
	if m == nil {
		return match{}, nil
	}
	f := Fields{Type: TypeEnacted, Law: strings.ToLower(m[1])}
	congress, number, _ := strings.Cut(m[2], "-")
	f.Congress, f.Number = congress, number

	switch {
	case slices.Contains(finalEnactedStates, in.prev):
		return match{fields: f, ok: true}, nil
	case in.prev.IsVetoed():
		return match{fields: f, status: EnactedVetoOverride, ok: true}, nil
	case TenDayRuleBills[in.bill.String()]:
		return match{fields: f, status: EnactedTenDayRule, ok: true}, nil
	}
	return match{}, &IntegrityError{Reason: "became law without a signed, vetoed or ten-day-rule action (status " + string(in.prev) + ")"}
}

var referralRe = regexp.MustCompile(`(?i)Referred to (?:the )?(House|Senate)?\s?(?:Committee|Subcommittee)?`)

func matchReferral(in input) (match, error) {
	if !referralRe.MatchString(in.line) {
		return match{}, nil
	}
	var st Status
	if in.prev == Introduced {
		st = Referred
	}
	return match{fields: Fields{Type: TypeReferral}, status: st, ok: true}, nil
}
