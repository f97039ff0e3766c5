package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNil_MatchesAll(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	ok, err := s.Match(Entry{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch(t *testing.T) {
	s, err := New(`collection == "BILLS" && congress >= 115 && bill_type in ["hr", "s"]`)
	require.NoError(t, err)

	cases := []struct {
		entry Entry
		want  bool
	}{
		{Entry{Collection: "BILLS", Congress: 116, BillType: "hr"}, true},
		{Entry{Collection: "BILLS", Congress: 114, BillType: "hr"}, false},
		{Entry{Collection: "BILLS", Congress: 116, BillType: "hres"}, false},
		{Entry{Collection: "CRPT", Congress: 116, BillType: "hr"}, false},
	}
	for _, tc := range cases {
		got, err := s.Match(tc.entry)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%+v", tc.entry)
	}
}

func TestPackagePattern(t *testing.T) {
	s, err := New(`pkg.startsWith("BILLS-116") && pkg.endsWith("enr")`)
	require.NoError(t, err)
	ok, err := s.Match(Entry{Package: "BILLS-116hr1enr"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(`congress +`)
	assert.ErrorContains(t, err, "compile")

	_, err = New(`congress + 1`)
	assert.ErrorContains(t, err, "boolean")

	_, err = New(`senator == "x"`)
	assert.Error(t, err)
}
