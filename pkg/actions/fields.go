package actions

// Fields is the typed part of an action that the parser extracts from its
// text. Zero values are omitted from the JSON record.
type Fields struct {
	Type string `json:"type"`

	// vote and vote-aux
	VoteType   string `json:"vote_type,omitempty"`
	Chamber    string `json:"chamber,omitempty"`
	How        string `json:"how,omitempty"`
	Result     string `json:"result,omitempty"`
	Roll       string `json:"roll,omitempty"`
	Suspension *bool  `json:"suspension,omitempty"`
	AsAmended  bool   `json:"as_amended,omitempty"`

	// calendar
	Calendar string `json:"calendar,omitempty"`
	Under    string `json:"under,omitempty"`

	// reported, hearings, discharged
	Committee string `json:"committee,omitempty"`

	// vetoed
	Pocket bool `json:"pocket,omitempty"`

	// enacted
	Law      string `json:"law,omitempty"`
	Congress string `json:"congress,omitempty"`

	// calendar number or law number
	Number string `json:"number,omitempty"`

	BillIDs []string `json:"bill_ids,omitempty"`
}

// Action types.
const (
	TypeAction          = "action"
	TypeReferral        = "referral"
	TypeReported        = "reported"
	TypeOrderedReported = "ordered-reported"
	TypeCalendar        = "calendar"
	TypeHearings        = "hearings"
	TypeDischarged      = "discharged"
	TypeVote            = "vote"
	TypeVoteAux         = "vote-aux"
	TypeToPresident     = "topresident"
	TypeSigned          = "signed"
	TypeVetoed          = "vetoed"
	TypeEnacted         = "enacted"
)

// IsVote reports whether the action records a chamber vote.
func (f *Fields) IsVote() bool {
	return f.Type == TypeVote || f.Type == TypeVoteAux
}

// merge copies into f every field that f has not set yet.
func (f *Fields) merge(o Fields) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&f.Type, o.Type)
	fill(&f.VoteType, o.VoteType)
	fill(&f.Chamber, o.Chamber)
	fill(&f.How, o.How)
	fill(&f.Result, o.Result)
	fill(&f.Roll, o.Roll)
	if f.Suspension == nil {
		f.Suspension = o.Suspension
	}
	f.AsAmended = f.AsAmended || o.AsAmended
	fill(&f.Calendar, o.Calendar)
	fill(&f.Under, o.Under)
	fill(&f.Committee, o.Committee)
	f.Pocket = f.Pocket || o.Pocket
	fill(&f.Law, o.Law)
	fill(&f.Congress, o.Congress)
	fill(&f.Number, o.Number)
}
