package ident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillID(t *testing.T) {
	b, err := ParseBillID("hr3590-111")
	require.NoError(t, err)
	assert.Equal(t, BillID{Type: "hr", Number: 3590, Congress: 111}, b)
	assert.Equal(t, "hr3590-111", b.String())
	assert.Equal(t, "h", b.Chamber())
	assert.Equal(t, "H.R. 3590", b.Citation())

	b, err = ParseBillID("sconres13-115")
	require.NoError(t, err)
	assert.True(t, b.IsConcurrentResolution())
	assert.Equal(t, "s", b.Chamber())

	for _, bad := range []string{"", "hr-111", "xx12-111", "hr12", "HR12-111"} {
		_, err := ParseBillID(bad)
		assert.ErrorIs(t, err, ErrInvalidBillID, bad)
	}
}

func TestParseBillVersionID(t *testing.T) {
	v, err := ParseBillVersionID("hr3590-111-enr")
	require.NoError(t, err)
	assert.Equal(t, "enr", v.Version)
	assert.Equal(t, "hr3590-111", v.BillID.String())
	assert.Equal(t, "hr3590-111-enr", v.String())
}

func TestParseVoteID(t *testing.T) {
	v, err := ParseVoteID("h768-111.2010")
	require.NoError(t, err)
	assert.Equal(t, VoteID{Chamber: "h", Number: 768, Congress: 111, SessionYear: 2010}, v)
	assert.Equal(t, 2, v.Session())
	assert.Equal(t, "h768-111.2010", v.String())

	_, err = ParseVoteID("x1-111.2010")
	assert.ErrorIs(t, err, ErrInvalidVoteID)
}

func TestCongressYears(t *testing.T) {
	assert.Equal(t, 2009, CongressFirstYear(111))
	assert.Equal(t, 111, CongressForYear(2009))
	assert.Equal(t, 111, CongressForYear(2010))
	assert.Equal(t, 118, CongressForYear(2024))
	assert.Equal(t, 1, SessionNumber(111, 2009))
}

func TestNormalizeBillType(t *testing.T) {
	assert.Equal(t, "hr", NormalizeBillType("H.R."))
	assert.Equal(t, "hjres", NormalizeBillType("HJRES"))
	assert.Equal(t, "sconres", NormalizeBillType("S.Con.Res."))
	assert.Equal(t, "hres", NormalizeBillType("H RES"))
	assert.Equal(t, "", NormalizeBillType("PN"))
}

func TestExtractBillIDs(t *testing.T) {
	text := "Passed House pursuant to H. Res. 1203. See also H.R. 4872, S.Con.Res. 13 and H.R. 4872."
	assert.Equal(t, []string{"hres1203-111", "hr4872-111", "sconres13-111"}, ExtractBillIDs(text, 111))

	assert.Empty(t, ExtractBillIDs("Referred to the Committee on this. 5 members", 111))
}

func TestFormatDateTime(t *testing.T) {
	summer := time.Date(2010, 3, 21, 22, 48, 0, 0, Eastern)
	assert.Equal(t, "2010-03-21T22:48:00-04:00", FormatDateTime(summer))
	winter := time.Date(2009, 12, 24, 7, 5, 0, 0, Eastern)
	assert.Equal(t, "2009-12-24T07:05:00-05:00", FormatDateTime(winter))
	assert.Equal(t, "2009-12-24", FormatDate(winter))
}
