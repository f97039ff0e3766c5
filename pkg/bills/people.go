package bills

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var sponsorNameRe = regexp.MustCompile(`^(Rep\.|Sen\.|Del\.|Resident Commissioner) (.*?) +\[([DRIL])-([A-Z][A-Z])(-(\d{1,2}|At Large|None))?\]$`)

// person parses a publisher fullName such as "Rep. Rangel, Charles B.
// [D-NY-15]".
func person(p sourceSponsor) (Sponsor, error) {
	m := sponsorNameRe.FindStringSubmatch(strings.TrimSpace(p.FullName))
	if m == nil {
		return Sponsor{}, fmt.Errorf("unrecognized sponsor name %q", p.FullName)
	}
	district := m[6]
	if district == "None" {
		district = ""
	}
	return Sponsor{
		Title:      strings.TrimSuffix(m[1], "."),
		Name:       m[2],
		State:      m[4],
		District:   district,
		BioguideID: p.BioguideID,
		Type:       "person",
	}, nil
}

func sponsorFor(items []sourceSponsor) (*Sponsor, error) {
	if len(items) == 0 {
		return nil, nil
	}
	sp, err := person(items[0])
	if err != nil {
		return nil, fmt.Errorf("sponsor: %w", err)
	}
	return &sp, nil
}

func cosponsorsFor(items []sourceSponsor) ([]Cosponsor, error) {
	out := make([]Cosponsor, 0, len(items))
	for _, it := range items {
		p, err := person(it)
		if err != nil {
			return nil, fmt.Errorf("cosponsor: %w", err)
		}
		out = append(out, Cosponsor{
			Title:             p.Title,
			Name:              p.Name,
			State:             p.State,
			District:          p.District,
			BioguideID:        p.BioguideID,
			SponsoredAt:       it.SponsorshipDate,
			WithdrawnAt:       it.WithdrawnDate,
			OriginalCosponsor: it.IsOriginal == "True",
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
