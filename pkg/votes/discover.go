package votes

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/ident"
	"github.com/unitedstates/congress-sub000/pkg/layout"
)

var (
	houseGroupRe = regexp.MustCompile(`(?i)ROLL_\d+\.asp$`)
	rollNumberRe = regexp.MustCompile(`(?i)rollnumber=(\d+)`)
)

// Discover lists the vote ids published for a chamber in one session year.
// An empty chamber means both.
func (p *Processor) Discover(ctx context.Context, congress, year int, chamber string) ([]string, error) {
	if ident.SessionNumber(congress, year) < 1 || ident.SessionNumber(congress, year) > 3 {
		return nil, fmt.Errorf("year %d is not a session of congress %d", year, congress)
	}
	var ids []string
	if chamber == "" || chamber == House {
		numbers, err := p.discoverHouse(ctx, congress, year)
		if err != nil {
			return nil, err
		}
		ids = append(ids, voteIDs(House, congress, year, numbers)...)
	}
	if chamber == "" || chamber == Senate {
		numbers, err := p.discoverSenate(ctx, congress, year)
		if err != nil {
			return nil, err
		}
		ids = append(ids, voteIDs(Senate, congress, year, numbers)...)
	}
	return ids, nil
}

func voteIDs(chamber string, congress, year int, numbers []int) []string {
	sort.Ints(numbers)
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, ident.VoteID{Chamber: chamber, Number: n, Congress: congress, SessionYear: year}.String())
	}
	return out
}

func links(page []byte) ([]string, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" {
					out = append(out, strings.TrimSpace(a.Val))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

// discoverHouse reads the clerk's year index, then every group page it
// links, and collects roll numbers from the vote links.
func (p *Processor) discoverHouse(ctx context.Context, congress, year int) ([]int, error) {
	houseBase := base(p.HouseBaseURL, DefaultHouseBaseURL)
	cacheDir := layout.VotePagesCacheDir(congress, year)
	indexURL := fmt.Sprintf("%sevs/%d/index.asp", houseBase, year)

	res, err := p.Fetcher.Get(ctx, indexURL, path.Join(cacheDir, "house.html"), fetch.Options{Force: true})
	if err != nil {
		return nil, fmt.Errorf("house vote index %d: %w", year, err)
	}
	hrefs, err := links(res.Body)
	if err != nil {
		return nil, fmt.Errorf("house vote index %d: %w", year, err)
	}

	// The clerk links votes either as ...rollnumber=N or as /Votes/YYYYN.
	votesPathRe := regexp.MustCompile(fmt.Sprintf(`(?i)/Votes/%d(\d+)$`, year))
	seen := make(map[int]bool)
	var numbers []int
	for _, group := range hrefs {
		if !houseGroupRe.MatchString(group) {
			continue
		}
		name := path.Base(group)
		groupURL := fmt.Sprintf("%sevs/%d/%s", houseBase, year, name)
		page, err := p.Fetcher.Get(ctx, groupURL, path.Join(cacheDir, "house_"+name+".html"), fetch.Options{Force: true})
		if err != nil {
			return nil, fmt.Errorf("house vote group %s: %w", groupURL, err)
		}
		voteLinks, err := links(page.Body)
		if err != nil {
			return nil, fmt.Errorf("house vote group %s: %w", groupURL, err)
		}
		for _, link := range voteLinks {
			m := rollNumberRe.FindStringSubmatch(link)
			if m == nil {
				m = votesPathRe.FindStringSubmatch(link)
			}
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err != nil || n == 0 || seen[n] {
				continue
			}
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	p.log().InfoContext(ctx, "house votes discovered", "year", year, "count", len(numbers))
	return numbers, nil
}

type senateMenu struct {
	Congress int `xml:"congress"`
	Session  int `xml:"session"`
	Votes    []struct {
		Number int `xml:"vote_number"`
	} `xml:"votes>vote"`
}

// discoverSenate reads the session's vote menu.
func (p *Processor) discoverSenate(ctx context.Context, congress, year int) ([]int, error) {
	session := ident.SessionNumber(congress, year)
	menuURL := fmt.Sprintf("%slegislative/LIS/roll_call_lists/vote_menu_%d_%d.xml",
		base(p.SenateBaseURL, DefaultSenateBaseURL), congress, session)
	res, err := p.Fetcher.Get(ctx, menuURL, path.Join(layout.VotePagesCacheDir(congress, year), "senate.xml"), fetch.Options{Binary: true, Force: true})
	if err != nil {
		return nil, fmt.Errorf("senate vote menu %d-%d: %w", congress, session, err)
	}
	var menu senateMenu
	if err := decodeXML(res.Body, &menu); err != nil {
		return nil, fmt.Errorf("parse senate vote menu %d-%d: %w", congress, session, err)
	}
	if menu.Congress != congress || menu.Session != session {
		return nil, fmt.Errorf("%w: asked for %d-%d, got %d-%d", ErrMismatchedMenu, congress, session, menu.Congress, menu.Session)
	}
	numbers := make([]int, 0, len(menu.Votes))
	for _, v := range menu.Votes {
		numbers = append(numbers, v.Number)
	}
	p.log().InfoContext(ctx, "senate votes discovered", "year", year, "count", len(numbers))
	return numbers, nil
}
