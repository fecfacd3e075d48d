package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(email, session, csvdata string) Record {
	return Record{
		Email:      email,
		Session:    session,
		IPAddress:  "1.1.1.1",
		UserAgent:  "Mozilla/5.0",
		AppVersion: "2.1",
		Task:       "essay",
		Tags:       "lab,fall",
		CSVData:    csvdata,
	}
}

func TestParseBlock_AppendsMetadata(t *testing.T) {
	b, err := ParseBlock(record("a@x.com", "s1", "x,y\n1,2\n3,4"))
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", b.Email)
	assert.Equal(t, "s1", b.Session)
	assert.Equal(t, []string{"x", "y", "ipaddress", "useragent", "appversion", "task", "tags"}, b.Columns)
	require.Len(t, b.Rows, 2)
	assert.Equal(t, []string{"1", "2", "1.1.1.1", "Mozilla/5.0", "2.1", "essay", "lab,fall"}, b.Rows[0])
	assert.Equal(t, []string{"3", "4", "1.1.1.1", "Mozilla/5.0", "2.1", "essay", "lab,fall"}, b.Rows[1])
}

func TestParseBlock_SkipsBlankLinesAndPadsShortRows(t *testing.T) {
	b, err := ParseBlock(record("a@x.com", "s1", "keycode,time,action\r\n\r\n65,100,press\r\n65\r\n"))
	require.NoError(t, err)
	require.Len(t, b.Rows, 2)
	assert.Equal(t, []string{"65", "100", "press"}, b.Rows[0][:3])
	assert.Equal(t, []string{"65", "", ""}, b.Rows[1][:3])
}

func TestParseBlock_HeaderOnly(t *testing.T) {
	b, err := ParseBlock(record("a@x.com", "s1", "x,y\n"))
	require.NoError(t, err)
	assert.Empty(t, b.Rows)
	assert.Len(t, b.Columns, 7)
}

func TestParseBlock_MetadataOverridesPayloadColumn(t *testing.T) {
	b, err := ParseBlock(record("a@x.com", "s1", "task,x\nold,1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"task", "x", "ipaddress", "useragent", "appversion", "tags"}, b.Columns)
	assert.Equal(t, "essay", b.Rows[0][0])
}

func TestParseBlock_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"too many":  "x,y\n1,2,3",
		"bad quote": "x,y\n\"1,2",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBlock(record("a@x.com", "s9", payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedCSV))
			assert.Contains(t, err.Error(), "s9")
		})
	}
}

func TestParseBlock_RenamesDuplicateColumns(t *testing.T) {
	b, err := ParseBlock(record("a@x.com", "s1", "x,x,x.1,x\n1,2,3,4"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x.1", "x.1.1", "x.2"}, b.Columns[:4])
	assert.Equal(t, []string{"1", "2", "3", "4"}, b.Rows[0][:4])
}

func TestParseBlock_NamesBlankColumns(t *testing.T) {
	b, err := ParseBlock(record("a@x.com", "s1", ",x,,y\n0,1,2,3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Unnamed: 0", "x", "Unnamed: 2", "y"}, b.Columns[:4])
	assert.Equal(t, []string{"0", "1", "2", "3"}, b.Rows[0][:4])
}

func TestParseBlock_KeepsHeaderSpacing(t *testing.T) {
	b, err := ParseBlock(record("a@x.com", "s1", " x, task\n1,old"))
	require.NoError(t, err)
	assert.Equal(t, []string{" x", " task", "ipaddress", "useragent", "appversion", "task", "tags"}, b.Columns)
	// " task" is a payload column, not the metadata column
	assert.Equal(t, []string{"1", "old", "1.1.1.1", "Mozilla/5.0", "2.1", "essay", "lab,fall"}, b.Rows[0])
}
