package bills

import (
	"fmt"
	"slices"
	"strings"
)

var committeeActivities = map[string][]string{
	"referred to":               {"referral"},
	"hearings by":               {"hearings"},
	"markup by":                 {"markup"},
	"reported by":               {"reporting"},
	"discharged from":           {"discharged"},
	"reported original measure": {"origin", "reporting"},
}

var committeeNameFixes = map[string]string{
	"House House Administration": "House Administration",
}

func activitiesFor(labels []string) ([]string, error) {
	out := []string{}
	for _, l := range labels {
		acts, ok := committeeActivities[strings.ToLower(strings.TrimSpace(l))]
		if !ok {
			return nil, fmt.Errorf("unknown committee activity %q", l)
		}
		for _, a := range acts {
			if !slices.Contains(out, a) {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func committeeName(chamber, name string) string {
	n := chamber + " " + strings.TrimSuffix(strings.TrimSpace(name), " Committee")
	if fixed, ok := committeeNameFixes[n]; ok {
		return fixed
	}
	return n
}

func subcommitteeName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, " Subcommittee") {
		return "Subcommittee on " + strings.TrimSuffix(name, " Subcommittee")
	}
	return name
}

// committeeID turns a system code like "hsif00" into "HSIF".
func committeeID(code string) string {
	if len(code) < 2 {
		return strings.ToUpper(code)
	}
	return strings.ToUpper(code[:len(code)-2])
}

// committeesFor flattens committees and their subcommittees into one list.
func committeesFor(items []sourceCommittee) ([]Committee, error) {
	out := []Committee{}
	for _, c := range items {
		acts, err := activitiesFor(c.Activities)
		if err != nil {
			return nil, fmt.Errorf("committee %s: %w", c.SystemCode, err)
		}
		name := committeeName(c.Chamber, c.Name)
		id := committeeID(c.SystemCode)
		out = append(out, Committee{Committee: name, CommitteeID: id, Activity: acts})

		for _, sc := range c.Subcommittees {
			sacts, err := activitiesFor(sc.Activities)
			if err != nil {
				return nil, fmt.Errorf("subcommittee %s: %w", sc.SystemCode, err)
			}
			sid := sc.SystemCode
			if len(sid) > 2 {
				sid = sid[len(sid)-2:]
			}
			out = append(out, Committee{
				Committee:      name,
				CommitteeID:    id,
				Subcommittee:   subcommitteeName(sc.Name),
				SubcommitteeID: sid,
				Activity:       sacts,
			})
		}
	}
	return out, nil
}
