package votes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override corrects one member record of one roll call where the publisher
// is known to be wrong. A record matches when every non-empty match field
// equals the published value.
type Override struct {
	VoteID string `yaml:"vote_id"`

	MatchID    string `yaml:"match_id"`
	MatchName  string `yaml:"match_name"`
	MatchState string `yaml:"match_state"`

	ID    string `yaml:"id"`
	State string `yaml:"state"`
	Party string `yaml:"party"`
}

// Overrides is keyed by vote id.
type Overrides map[string][]Override

// LoadOverrides reads a YAML list of overrides. An empty path yields an
// empty table.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read vote overrides: %w", err)
	}
	var list []Override
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse vote overrides %s: %w", path, err)
	}
	out := make(Overrides)
	for i, o := range list {
		if o.VoteID == "" || (o.MatchID == "" && o.MatchName == "" && o.MatchState == "") {
			return nil, fmt.Errorf("vote override %d: vote_id and a match field are required", i)
		}
		out[o.VoteID] = append(out[o.VoteID], o)
	}
	return out, nil
}

// apply patches m in place and reports whether an override matched.
func (ov Overrides) apply(voteID string, m *member) bool {
	for _, o := range ov[voteID] {
		if o.MatchID != "" && o.MatchID != m.id {
			continue
		}
		if o.MatchName != "" && o.MatchName != m.displayName {
			continue
		}
		if o.MatchState != "" && o.MatchState != m.state {
			continue
		}
		if o.ID != "" {
			m.id = o.ID
		}
		if o.State != "" {
			m.state = o.State
		}
		if o.Party != "" {
			m.party = o.Party
		}
		return true
	}
	return false
}
