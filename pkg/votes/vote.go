// Package votes fetches House and Senate roll-call votes and turns them into
// vote records.
package votes

import (
	"encoding/json"
	"errors"
)

const (
	House  = "h"
	Senate = "s"
)

// Voter id kinds.
const (
	IDsNative   = "native"
	IDsBioguide = "bioguide"
	IDsGovtrack = "govtrack"
)

var (
	// ErrUnresolvedVoter rejects a vote with a voter that has no id of the
	// requested kind.
	ErrUnresolvedVoter = errors.New("voter could not be identified")
	// ErrMismatchedMenu is returned when a Senate vote menu describes a
	// different congress or session than requested.
	ErrMismatchedMenu = errors.New("vote menu does not match the requested session")
	ErrUnknownIDKind  = errors.New("unknown voter id kind")
)

// Vote is the normalized roll-call record.
type Vote struct {
	VoteID         string              `json:"vote_id"`
	Chamber        string              `json:"chamber"`
	Congress       int                 `json:"congress"`
	Session        string              `json:"session"`
	Number         int                 `json:"number"`
	Date           string              `json:"date"`
	RecordModified string              `json:"record_modified,omitempty"`
	Question       string              `json:"question"`
	Subject        string              `json:"subject,omitempty"`
	Category       string              `json:"category"`
	Type           string              `json:"type"`
	Requires       string              `json:"requires"`
	ResultText     string              `json:"result_text"`
	Result         string              `json:"result"`
	Bill           *BillRef            `json:"bill,omitempty"`
	Amendment      *AmendmentRef       `json:"amendment,omitempty"`
	Nomination     *NominationRef      `json:"nomination,omitempty"`
	Treaty         *TreatyRef          `json:"treaty,omitempty"`
	SourceURL      string              `json:"source_url"`
	UpdatedAt      string              `json:"updated_at"`
	Votes          map[string][]*Voter `json:"votes"`

	// options keeps the order options were declared in for the legacy XML.
	options []string
}

type BillRef struct {
	Congress int    `json:"congress"`
	Type     string `json:"type"`
	Number   int    `json:"number"`
}

type AmendmentRef struct {
	Type    string `json:"type"`
	Number  int    `json:"number"`
	Author  string `json:"author,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

type NominationRef struct {
	Number string `json:"number"`
	Title  string `json:"title"`
}

type TreatyRef struct {
	Congress int    `json:"congress,omitempty"`
	Number   string `json:"number,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Voter is one member's entry under an option. The Vice President breaking
// a Senate tie is recorded as the bare string "VP".
type Voter struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	Party       string `json:"party"`
	DisplayName string `json:"display_name"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`

	VicePresident bool `json:"-"`
}

var vicePresident = &Voter{VicePresident: true}

func (v *Voter) MarshalJSON() ([]byte, error) {
	if v.VicePresident {
		return []byte(`"VP"`), nil
	}
	type plain Voter
	return json.Marshal((*plain)(v))
}

// addOption declares an option bucket, keeping declaration order.
func (v *Vote) addOption(option string) {
	if v.Votes == nil {
		v.Votes = make(map[string][]*Voter)
	}
	if _, ok := v.Votes[option]; !ok {
		v.Votes[option] = []*Voter{}
		v.options = append(v.options, option)
	}
}

func (v *Vote) add(option string, voter *Voter) {
	v.addOption(option)
	v.Votes[option] = append(v.Votes[option], voter)
}

// Options returns the option names in declaration order.
func (v *Vote) Options() []string {
	return v.options
}
