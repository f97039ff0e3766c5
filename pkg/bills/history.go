package bills

import (
	"slices"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/actions"
)

var inactiveTypes = []string{actions.TypeReferral, actions.TypeCalendar, actions.TypeAction}

// passageVoteTypes are the votes that count as a chamber passing the
// measure. Conference report votes do not.
var passageVoteTypes = []string{actions.VoteOriginating, actions.VoteSecond, actions.VotePingpong}

// activation finds the first substantive action. Referrals, calendar
// placements and plain actions at the head of the history do not count.
func activation(list []Action) *Action {
	if len(list) == 0 {
		return nil
	}
	if !slices.Contains(inactiveTypes, list[0].Type) {
		return &list[0]
	}
	for i := 1; i < len(list); i++ {
		a := list[i]
		if !slices.Contains(inactiveTypes, a.Type) && !strings.Contains(a.Text, "Sponsor introductory remarks") {
			return &list[i]
		}
	}
	return nil
}

func historyFor(list []Action) History {
	var h History
	if a := activation(list); a != nil {
		h.Active, h.ActiveAt = true, a.ActedAt
	}

	var topresident *Action
	for i := range list {
		a := &list[i]
		switch {
		case a.Type == actions.TypeVote && slices.Contains(passageVoteTypes, a.VoteType) && a.Chamber == "h":
			h.HousePassageResult, h.HousePassageResultAt = a.Result, a.ActedAt
		case a.Type == actions.TypeVote && slices.Contains(passageVoteTypes, a.VoteType) && a.Chamber == "s":
			h.SenatePassageResult, h.SenatePassageResultAt = a.Result, a.ActedAt
		case a.Type == actions.TypeVoteAux && a.VoteType == actions.VoteCloture && a.Chamber == "s":
			h.SenateClotureResult, h.SenateClotureResultAt = a.Result, a.ActedAt
		case a.Type == actions.TypeVote && a.VoteType == actions.VoteOverride && a.Chamber == "h":
			h.HouseOverrideResult, h.HouseOverrideResultAt = a.Result, a.ActedAt
		case a.Type == actions.TypeVote && a.VoteType == actions.VoteOverride && a.Chamber == "s":
			h.SenateOverrideResult, h.SenateOverrideResultAt = a.Result, a.ActedAt
		case a.Type == actions.TypeVetoed:
			h.Vetoed, h.VetoedAt = true, a.ActedAt
		case a.Type == actions.TypeEnacted:
			h.Enacted, h.EnactedAt = true, a.ActedAt
		case a.Type == actions.TypeToPresident:
			topresident = a
		}
	}
	if topresident != nil && !h.Vetoed && !h.Enacted {
		h.AwaitingSignature, h.AwaitingSignatureSince = true, topresident.ActedAt
	}
	return h
}

func enactedAsFor(list []Action) *EnactedAs {
	for _, a := range list {
		if a.Type == actions.TypeEnacted {
			return &EnactedAs{LawType: a.Law, Congress: a.Congress, Number: a.Number}
		}
	}
	return nil
}
