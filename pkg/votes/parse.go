package votes

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/unitedstates/congress-sub000/pkg/ident"
)

// member is a voter as published, before identity resolution.
type member struct {
	id          string
	displayName string
	lookupName  string
	firstName   string
	lastName    string
	state       string
	party       string
	option      string
}

// parsed is a vote record whose voters still need ids.
type parsed struct {
	vote    *Vote
	members []member
	// tieBreaker is the option the Vice President chose, if any.
	tieBreaker string
}

func decodeXML(data []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

func newVote(id ident.VoteID) *Vote {
	return &Vote{
		VoteID:   id.String(),
		Chamber:  id.Chamber,
		Congress: id.Congress,
		Session:  strconv.Itoa(id.SessionYear),
		Number:   id.Number,
		Votes:    make(map[string][]*Voter),
	}
}

var spaceRe = regexp.MustCompile(`\s+`)

func squash(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

type senateDoc struct {
	Congress     int    `xml:"congress"`
	Session      int    `xml:"session"`
	VoteNumber   int    `xml:"vote_number"`
	VoteDate     string `xml:"vote_date"`
	ModifyDate   string `xml:"modify_date"`
	QuestionText string `xml:"vote_question_text"`
	ResultText   string `xml:"vote_result_text"`
	Question     string `xml:"question"`
	Title        string `xml:"vote_title"`
	Requirement  string `xml:"majority_requirement"`
	Result       string `xml:"vote_result"`
	Document     struct {
		Congress string `xml:"document_congress"`
		Type     string `xml:"document_type"`
		Number   string `xml:"document_number"`
		Name     string `xml:"document_name"`
		Title    string `xml:"document_title"`
	} `xml:"document"`
	Amendment struct {
		Number     string `xml:"amendment_number"`
		ToDocument string `xml:"amendment_to_document_number"`
		Purpose    string `xml:"amendment_purpose"`
	} `xml:"amendment"`
	TieBreaker struct {
		ByWhom string `xml:"by_whom"`
		Vote   string `xml:"tie_breaker_vote"`
	} `xml:"tie_breaker"`
	Members []struct {
		LastName  string `xml:"last_name"`
		FirstName string `xml:"first_name"`
		Party     string `xml:"party"`
		State     string `xml:"state"`
		VoteCast  string `xml:"vote_cast"`
		LISID     string `xml:"lis_member_id"`
	} `xml:"members>member"`
}

var senateDateLayouts = []string{
	"January 2, 2006, 03:04 PM",
	"January 2, 2006, 3:04 PM",
	"January 2, 2006",
}

// parseSenateDate reads dates such as "March 24, 2010, 02:52 PM" in Eastern
// time.
func parseSenateDate(s string) (string, error) {
	s = squash(s)
	for i, layout := range senateDateLayouts {
		t, err := time.ParseInLocation(layout, s, ident.Eastern)
		if err != nil {
			continue
		}
		if i == len(senateDateLayouts)-1 {
			return ident.FormatDate(t), nil
		}
		return ident.FormatDateTime(t), nil
	}
	return "", fmt.Errorf("unrecognized senate date %q", s)
}

var senateAmendmentRe = regexp.MustCompile(`^S\.\s?(?:Up\.\s?)?Amdt\.\s?(\d+)`)

// parseSenate reads a Senate roll-call XML document.
func parseSenate(data []byte, id ident.VoteID) (*parsed, error) {
	var doc senateDoc
	if err := decodeXML(data, &doc); err != nil {
		return nil, fmt.Errorf("parse senate vote %s: %w", id, err)
	}
	if doc.Congress != id.Congress || doc.VoteNumber != id.Number {
		return nil, fmt.Errorf("senate vote %s: document is vote %d of congress %d", id, doc.VoteNumber, doc.Congress)
	}

	v := newVote(id)
	var err error
	if v.Date, err = parseSenateDate(doc.VoteDate); err != nil {
		return nil, fmt.Errorf("senate vote %s: %w", id, err)
	}
	if doc.ModifyDate != "" {
		if v.RecordModified, err = parseSenateDate(doc.ModifyDate); err != nil {
			return nil, fmt.Errorf("senate vote %s: %w", id, err)
		}
	}

	v.Question = squash(doc.QuestionText)
	if v.Question == "" {
		v.Question = squash(doc.Question)
	}
	rawType := squash(doc.Question)
	if rawType == "" {
		rawType = v.Question
	}
	v.Type = NormalizeType(rawType)
	v.Category = Category(rawType)
	v.Subject = squash(doc.Title)
	v.Requires = squash(doc.Requirement)
	v.ResultText = squash(doc.ResultText)
	v.Result = squash(doc.Result)

	docType, docNumber := squash(doc.Document.Type), squash(doc.Document.Number)
	docCongress := id.Congress
	if c, err := strconv.Atoi(squash(doc.Document.Congress)); err == nil && c > 0 {
		docCongress = c
	}
	switch {
	case docType == "PN":
		v.Nomination = &NominationRef{Number: docNumber, Title: squash(doc.Document.Title)}
	case strings.HasPrefix(docType, "Treaty"):
		v.Treaty = &TreatyRef{Congress: docCongress, Number: docNumber, Title: squash(doc.Document.Title)}
	case docType != "" && docNumber != "":
		if typ := ident.NormalizeBillType(docType); typ != "" {
			if n, err := strconv.Atoi(docNumber); err == nil {
				v.Bill = &BillRef{Congress: docCongress, Type: typ, Number: n}
			}
		}
	}

	if m := senateAmendmentRe.FindStringSubmatch(squash(doc.Amendment.Number)); m != nil {
		n, _ := strconv.Atoi(m[1])
		v.Amendment = &AmendmentRef{Type: "s", Number: n, Purpose: squash(doc.Amendment.Purpose)}
		to := squash(doc.Amendment.ToDocument)
		if strings.HasPrefix(to, "Treaty") {
			if i := strings.LastIndex(to, " "); i >= 0 && v.Treaty == nil {
				v.Treaty = &TreatyRef{Congress: id.Congress, Number: to[i+1:]}
			}
		} else if i := strings.LastIndex(to, " "); i > 0 && v.Bill == nil {
			typ := ident.NormalizeBillType(to[:i])
			n, err := strconv.Atoi(to[i+1:])
			if typ != "" && err == nil {
				v.Bill = &BillRef{Congress: id.Congress, Type: typ, Number: n}
			}
		}
	}

	// A cloture question often names only the motion while the title
	// names the measure.
	if v.Category == "cloture" && v.Subject != "" {
		name := squash(doc.Document.Name)
		if name != "" && strings.Contains(v.Subject, name) && !strings.Contains(v.Question, name) {
			v.Question, v.Subject = v.Subject, v.Question
		}
	}

	for _, o := range CanonicalOptions(Senate, rawType, "") {
		v.addOption(o)
	}

	p := &parsed{vote: v}
	if squash(doc.TieBreaker.ByWhom) != "" {
		p.tieBreaker = squash(doc.TieBreaker.Vote)
	}
	for _, m := range doc.Members {
		last := squash(m.LastName)
		p.members = append(p.members, member{
			id:          squash(m.LISID),
			displayName: last,
			lookupName:  last,
			firstName:   squash(m.FirstName),
			lastName:    last,
			state:       squash(m.State),
			party:       squash(m.Party),
			option:      squash(m.VoteCast),
		})
	}
	return p, nil
}

type houseDoc struct {
	Meta struct {
		Congress        int    `xml:"congress"`
		RollcallNum     int    `xml:"rollcall-num"`
		LegisNum        string `xml:"legis-num"`
		VoteQuestion    string `xml:"vote-question"`
		AmendmentNum    string `xml:"amendment-num"`
		AmendmentAuthor string `xml:"amendment-author"`
		VoteType        string `xml:"vote-type"`
		VoteResult      string `xml:"vote-result"`
		ActionDate      string `xml:"action-date"`
		ActionTime      struct {
			ETZ string `xml:"time-etz,attr"`
		} `xml:"action-time"`
		VoteDesc   string   `xml:"vote-desc"`
		Candidates []string `xml:"vote-totals>totals-by-candidate>candidate"`
	} `xml:"vote-metadata"`
	Records []struct {
		Legislator struct {
			NameID     string `xml:"name-id,attr"`
			Unaccented string `xml:"unaccented-name,attr"`
			Party      string `xml:"party,attr"`
			State      string `xml:"state,attr"`
			Name       string `xml:",chardata"`
		} `xml:"legislator"`
		Vote string `xml:"vote"`
	} `xml:"vote-data>recorded-vote"`
}

var (
	houseNonBillRe = regexp.MustCompile(`^(QUORUM|JOURNAL|MOTION|ADJOURN)( \d+)?$`)
	stateSuffixRe  = regexp.MustCompile(`\s*\([A-Z]{2}\)$`)
)

func parseHouseDate(date, etz string) (string, error) {
	date = squash(date)
	if etz = squash(etz); etz != "" {
		t, err := time.ParseInLocation("2-Jan-2006 15:04", date+" "+etz, ident.Eastern)
		if err != nil {
			return "", fmt.Errorf("unrecognized house date %q %q", date, etz)
		}
		return ident.FormatDateTime(t), nil
	}
	t, err := time.ParseInLocation("2-Jan-2006", date, ident.Eastern)
	if err != nil {
		return "", fmt.Errorf("unrecognized house date %q", date)
	}
	return ident.FormatDate(t), nil
}

// parseHouse reads a House roll-call XML document.
func parseHouse(data []byte, id ident.VoteID) (*parsed, error) {
	var doc houseDoc
	if err := decodeXML(data, &doc); err != nil {
		return nil, fmt.Errorf("parse house vote %s: %w", id, err)
	}
	meta := doc.Meta
	if meta.Congress != id.Congress || meta.RollcallNum != id.Number {
		return nil, fmt.Errorf("house vote %s: document is roll %d of congress %d", id, meta.RollcallNum, meta.Congress)
	}

	v := newVote(id)
	var err error
	if v.Date, err = parseHouseDate(meta.ActionDate, meta.ActionTime.ETZ); err != nil {
		return nil, fmt.Errorf("house vote %s: %w", id, err)
	}
	question := squash(meta.VoteQuestion)
	voteType := squash(meta.VoteType)
	v.Type = NormalizeType(question)
	v.Category = Category(question)
	v.Subject = squash(meta.VoteDesc)
	v.Requires = houseRequires[voteType]
	if v.Requires == "" {
		v.Requires = "unknown"
	}
	v.ResultText = squash(meta.VoteResult)
	v.Result = v.ResultText

	legis := squash(meta.LegisNum)
	if legis != "" && !houseNonBillRe.MatchString(legis) {
		i := strings.LastIndex(legis, " ")
		if i < 0 {
			return nil, fmt.Errorf("house vote %s: unhandled legis-num %q", id, legis)
		}
		typ := ident.NormalizeBillType(legis[:i])
		n, err := strconv.Atoi(legis[i+1:])
		if typ == "" || err != nil {
			return nil, fmt.Errorf("house vote %s: unhandled legis-num %q", id, legis)
		}
		v.Bill = &BillRef{Congress: id.Congress, Type: typ, Number: n}
	}
	if num := squash(meta.AmendmentNum); num != "" {
		n, err := strconv.Atoi(num)
		if err != nil {
			return nil, fmt.Errorf("house vote %s: unhandled amendment-num %q", id, num)
		}
		v.Amendment = &AmendmentRef{Type: "h-bill", Number: n, Author: squash(meta.AmendmentAuthor)}
	}

	v.Question = question
	if v.Amendment != nil {
		v.Question += fmt.Sprintf(": Amendment %d", v.Amendment.Number)
	}
	if v.Bill != nil {
		if v.Amendment != nil {
			v.Question += " to " + legis
		} else {
			v.Question += ": " + legis
		}
	}
	if v.Subject != "" {
		if v.Question == question {
			v.Question += ": " + v.Subject
		} else {
			v.Question += " " + v.Subject
		}
	}

	if hasCandidates(question) {
		for _, c := range meta.Candidates {
			v.addOption(squash(c))
		}
	} else {
		for _, o := range CanonicalOptions(House, question, voteType) {
			v.addOption(o)
		}
	}

	p := &parsed{vote: v}
	for _, r := range doc.Records {
		l := r.Legislator
		nameID := squash(l.NameID)
		if nameID == "0000000" {
			nameID = ""
		}
		lookup := squash(l.Unaccented)
		if lookup == "" {
			lookup = squash(l.Name)
		}
		p.members = append(p.members, member{
			id:          nameID,
			displayName: squash(l.Name),
			lookupName:  stateSuffixRe.ReplaceAllString(lookup, ""),
			state:       squash(l.State),
			party:       squash(l.Party),
			option:      squash(r.Vote),
		})
	}
	return p, nil
}

// eliminationOrder lists member indexes by descending display-name length,
// so that "Smith (NJ)" is resolved before a bare "Smith" can claim the id.
func eliminationOrder(members []member) []int {
	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(members[order[a]].displayName) > len(members[order[b]].displayName)
	})
	return order
}
