package votes

import (
	"bytes"
	"encoding/xml"

	"github.com/unitedstates/congress-sub000/pkg/ident"
)

type legacyRoll struct {
	XMLName   xml.Name         `xml:"roll"`
	Where     string           `xml:"where,attr"`
	Session   int              `xml:"session,attr"`
	Year      string           `xml:"year,attr"`
	Roll      int              `xml:"roll,attr"`
	Source    string           `xml:"source,attr"`
	DateTime  string           `xml:"datetime,attr"`
	Updated   string           `xml:"updated,attr"`
	Aye       int              `xml:"aye,attr"`
	Nay       int              `xml:"nay,attr"`
	NV        int              `xml:"nv,attr"`
	Present   int              `xml:"present,attr"`
	Category  string           `xml:"category"`
	Type      string           `xml:"type"`
	Question  string           `xml:"question"`
	Required  string           `xml:"required"`
	Result    string           `xml:"result"`
	Bill      *legacyBillRef   `xml:"bill"`
	Amendment *legacyAmendment `xml:"amendment"`
	Options   []legacyOption   `xml:"option"`
	Voters    []legacyVoter    `xml:"voter"`
}

type legacyBillRef struct {
	Session int    `xml:"session,attr"`
	Type    string `xml:"type,attr"`
	Number  int    `xml:"number,attr"`
}

type legacyAmendment struct {
	Ref    string `xml:"ref,attr"`
	Number int    `xml:"number,attr"`
}

type legacyOption struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type legacyVoter struct {
	ID    string `xml:"id,attr,omitempty"`
	VP    string `xml:"VP,attr,omitempty"`
	Vote  string `xml:"vote,attr"`
	Value string `xml:"value,attr"`
	State string `xml:"state,attr,omitempty"`
}

// optionKey is the one-character code the legacy format uses for the
// usual options. Candidates keep their own names.
func optionKey(option string) string {
	switch option {
	case "Yea", "Aye", "Guilty":
		return "+"
	case "Nay", "No", "Not Guilty":
		return "-"
	case "Not Voting":
		return "0"
	case "Present":
		return "P"
	}
	return option
}

// EncodeLegacyXML renders the vote in the legacy roll XML format.
func EncodeLegacyXML(v *Vote) ([]byte, error) {
	roll := legacyRoll{
		Where:    "house",
		Session:  v.Congress,
		Year:     v.Session,
		Roll:     v.Number,
		Source:   "house.gov",
		DateTime: v.Date,
		Updated:  v.UpdatedAt,
		Category: v.Category,
		Type:     v.Type,
		Question: v.Question,
		Required: v.Requires,
		Result:   v.Result,
	}
	if v.Chamber == Senate {
		roll.Where, roll.Source = "senate", "senate.gov"
	}
	if v.Bill != nil {
		roll.Bill = &legacyBillRef{Session: v.Bill.Congress, Type: ident.LegacyTypeCode(v.Bill.Type), Number: v.Bill.Number}
	}
	if v.Amendment != nil {
		ref := "regular"
		if v.Amendment.Type == "h-bill" {
			ref = "bill-serial"
		}
		roll.Amendment = &legacyAmendment{Ref: ref, Number: v.Amendment.Number}
	}

	for _, option := range v.Options() {
		key := optionKey(option)
		roll.Options = append(roll.Options, legacyOption{Key: key, Value: option})
		for _, voter := range v.Votes[option] {
			switch key {
			case "+":
				roll.Aye++
			case "-":
				roll.Nay++
			case "0":
				roll.NV++
			case "P":
				roll.Present++
			}
			lv := legacyVoter{Vote: key, Value: option}
			if voter.VicePresident {
				lv.VP = "1"
			} else {
				lv.ID, lv.State = voter.ID, voter.State
			}
			roll.Voters = append(roll.Voters, lv)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(roll); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
