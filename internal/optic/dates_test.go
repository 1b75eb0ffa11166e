package optic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISODate(t *testing.T) {
	d := parseISODate("2015-06-20")
	require.NotNil(t, d)
	assert.Equal(t, 2015, *d.year())
	assert.Equal(t, 6, *d.month())

	d = parseISODate("2015-06")
	require.NotNil(t, d)
	assert.Equal(t, 6, *d.month())

	d = parseISODate("2015")
	require.NotNil(t, d)
	assert.Equal(t, 2015, *d.year())
	assert.Nil(t, d.month())

	assert.Nil(t, parseISODate(""))
	assert.Nil(t, parseISODate("June 2015"))

	var missing *tagDate
	assert.Nil(t, missing.year())
	assert.Nil(t, missing.month())
}

func TestReadDateTag(t *testing.T) {
	doc := mustParse(t, `<job><start iso8601="2010-01-01">Jan 2010</start><end>current</end></job>`)
	start := readDateTag(doc, "start")
	require.NotNil(t, start)
	assert.Equal(t, 2010, *start.year())
	assert.Nil(t, readDateTag(doc, "end"), "没有iso8601属性时不解析文本")
	assert.Nil(t, readDateTag(doc, "completiondate"))
}

func TestDateRange(t *testing.T) {
	r := dateRange{start: parseISODate("2012-05-01"), end: parseISODate("2010-01-01")}.normalized()
	assert.Nil(t, r.start)
	assert.Nil(t, r.end)

	r = dateRange{start: parseISODate("2010-05-20"), end: parseISODate("2010-05-10")}.normalized()
	assert.Nil(t, r.start, "同月内按天比较")

	r = dateRange{start: parseISODate("2010-01-01")}.normalized()
	assert.NotNil(t, r.start)

	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, dateRange{end: parseISODate("2024-03-01")}.endsIn(now))
	assert.False(t, dateRange{end: parseISODate("2024-02-01")}.endsIn(now))
	assert.False(t, dateRange{end: parseISODate("2024")}.endsIn(now))
	assert.False(t, dateRange{}.endsIn(now))
}

func TestDaysSinceEpochToDate(t *testing.T) {
	assert.Equal(t, "0001-01-01", DaysSinceEpochToDate(0).Format("2006-01-02"))
	assert.Equal(t, "0002-01-01", DaysSinceEpochToDate(365).Format("2006-01-02"))
	assert.Equal(t, "2000-06-30", DaysSinceEpochToDate(730300).Format("2006-01-02"))
}
