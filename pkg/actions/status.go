package actions

import "strings"

// Status is a state in a bill's lifecycle.
type Status string

const (
	Introduced Status = "INTRODUCED"
	Referred   Status = "REFERRED"
	Reported   Status = "REPORTED"

	PassOverHouse  Status = "PASS_OVER:HOUSE"
	PassOverSenate Status = "PASS_OVER:SENATE"
	PassBackHouse  Status = "PASS_BACK:HOUSE"
	PassBackSenate Status = "PASS_BACK:SENATE"

	PassedSimpleRes     Status = "PASSED:SIMPLERES"
	PassedConstAmend    Status = "PASSED:CONSTAMEND"
	PassedConcurrentRes Status = "PASSED:CONCURRENTRES"
	PassedBill          Status = "PASSED:BILL"

	ProvKillSuspensionFailed Status = "PROV_KILL:SUSPENSIONFAILED"
	ProvKillClotureFailed    Status = "PROV_KILL:CLOTUREFAILED"
	ProvKillPingpongFail     Status = "PROV_KILL:PINGPONGFAIL"
	ProvKillVeto             Status = "PROV_KILL:VETO"

	FailOriginatingHouse  Status = "FAIL:ORIGINATING:HOUSE"
	FailOriginatingSenate Status = "FAIL:ORIGINATING:SENATE"
	FailSecondHouse       Status = "FAIL:SECOND:HOUSE"
	FailSecondSenate      Status = "FAIL:SECOND:SENATE"

	ConferencePassedHouse  Status = "CONFERENCE:PASSED:HOUSE"
	ConferencePassedSenate Status = "CONFERENCE:PASSED:SENATE"

	VetoedPocket                        Status = "VETOED:POCKET"
	VetoedOverrideFailOriginatingHouse  Status = "VETOED:OVERRIDE_FAIL_ORIGINATING:HOUSE"
	VetoedOverrideFailOriginatingSenate Status = "VETOED:OVERRIDE_FAIL_ORIGINATING:SENATE"
	VetoedOverrideFailSecondHouse       Status = "VETOED:OVERRIDE_FAIL_SECOND:HOUSE"
	VetoedOverrideFailSecondSenate      Status = "VETOED:OVERRIDE_FAIL_SECOND:SENATE"
	VetoedOverridePassOverHouse         Status = "VETOED:OVERRIDE_PASS_OVER:HOUSE"
	VetoedOverridePassOverSenate        Status = "VETOED:OVERRIDE_PASS_OVER:SENATE"

	EnactedSigned       Status = "ENACTED:SIGNED"
	EnactedVetoOverride Status = "ENACTED:VETO_OVERRIDE"
	EnactedTenDayRule   Status = "ENACTED:TENDAYRULE"
)

// Vote types.
const (
	VoteOriginating = "vote"
	VoteSecond      = "vote2"
	VotePingpong    = "pingpong"
	VoteCloture     = "cloture"
	VoteOverride    = "override"
	VoteConference  = "conference"
)

const constitutionalAmendmentTitle = "Proposing an amendment to the Constitution of the United States"

// IsEnacted reports whether s is one of the ENACTED states.
func (s Status) IsEnacted() bool { return strings.HasPrefix(string(s), "ENACTED:") }

// IsVetoed reports whether the measure sits on a veto that has not been
// overridden.
func (s Status) IsVetoed() bool {
	return s == ProvKillVeto || strings.HasPrefix(string(s), "VETOED:")
}

func byChamber(chamber string, house, senate Status) Status {
	if chamber == "h" {
		return house
	}
	return senate
}

// VoteOutcome describes a recorded chamber vote for the transition table.
type VoteOutcome struct {
	VoteType   string
	Passed     bool
	Chamber    string // "h" or "s"
	BillType   string
	Suspension bool
	AsAmended  bool
	Title      string
	Prev       Status
}

// NewStatusAfterVote returns the status a vote moves the measure to, or ""
// when the vote leaves it unchanged.
func NewStatusAfterVote(v VoteOutcome) (Status, error) {
	switch v.VoteType {
	case VoteOriginating:
		if v.Passed {
			if v.BillType == "hres" || v.BillType == "sres" {
				return PassedSimpleRes, nil
			}
			return byChamber(v.Chamber, PassOverHouse, PassOverSenate), nil
		}
		if v.Suspension {
			return ProvKillSuspensionFailed, nil
		}
		return byChamber(v.Chamber, FailOriginatingHouse, FailOriginatingSenate), nil

	case VoteSecond, VotePingpong:
		if v.Passed {
			if v.AsAmended {
				return byChamber(v.Chamber, PassBackHouse, PassBackSenate), nil
			}
			return finalPassage(v.BillType, v.Title), nil
		}
		if v.VoteType == VotePingpong {
			return ProvKillPingpongFail, nil
		}
		if v.Suspension {
			return ProvKillSuspensionFailed, nil
		}
		return byChamber(v.Chamber, FailSecondHouse, FailSecondSenate), nil

	case VoteCloture:
		if !v.Passed {
			return ProvKillClotureFailed, nil
		}
		return "", nil

	case VoteOverride:
		originating := v.BillType != "" && v.BillType[:1] == v.Chamber
		switch {
		case v.Passed && originating:
			return byChamber(v.Chamber, VetoedOverridePassOverHouse, VetoedOverridePassOverSenate), nil
		case v.Passed:
			return EnactedVetoOverride, nil
		case originating:
			return byChamber(v.Chamber, VetoedOverrideFailOriginatingHouse, VetoedOverrideFailOriginatingSenate), nil
		default:
			return byChamber(v.Chamber, VetoedOverrideFailSecondHouse, VetoedOverrideFailSecondSenate), nil
		}

	case VoteConference:
		if !v.Passed {
			return "", nil
		}
		if strings.HasPrefix(string(v.Prev), "CONFERENCE:PASSED:") {
			return finalPassage(v.BillType, v.Title), nil
		}
		return byChamber(v.Chamber, ConferencePassedHouse, ConferencePassedSenate), nil
	}
	return "", &IntegrityError{Reason: "unknown vote type " + v.VoteType}
}

func finalPassage(billType, title string) Status {
	switch {
	case (billType == "hjres" || billType == "sjres") && strings.HasPrefix(title, constitutionalAmendmentTitle):
		return PassedConstAmend
	case billType == "hconres" || billType == "sconres":
		return PassedConcurrentRes
	default:
		return PassedBill
	}
}

// TenDayRuleBills became law without a signature but carry no
// "Sent to Archivist ... unsigned" action in the publisher's data.
var TenDayRuleBills = map[string]bool{
	"s2641-93":   true,
	"hr1589-94":  true,
	"s2527-100":  true,
	"hr1677-101": true,
	"hr2978-101": true,
	"hr2126-104": true,
	"s1322-104":  true,
}
