package optic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestSplitBullets(t *testing.T) {
	assert.Equal(t, []string{"Did A", "Did B", "Did C"}, SplitBullets("Did A * Did B * Did C"))
	assert.Equal(t, []string{"Led team", "Cut costs"}, SplitBullets("•Led team ■ Cut costs"))
	assert.Equal(t, []string{"One", "Two", "Three"}, SplitBullets("•≅_One≅_Two➢Three"))
	assert.Equal(t, []string{"Para one", "Para two"}, SplitBullets("Para one\r\n\r\nPara two"))
	assert.Equal(t, []string{"Single line\nstill one"}, SplitBullets("Single line\nstill one"))
	assert.Empty(t, SplitBullets("  •  "))
}

func TestParseExperiences_Basic(t *testing.T) {
	doc := mustParse(t, `<resume><experience>
		<job>
			<employer>acme corporation</employer>
			<title>Senior Engineer</title>
			<address><city>boston</city><state>ma</state><country iso3="USA"/></address>
			<start iso8601="2019-02-01"/>
			<end iso8601="2024-03-01"/>
			<description>Built APIs? * Mentored juniors</description>
		</job>
		<job>
			<employer>IBM</employer>
			<title>Intern</title>
		</job>
	</experience></resume>`)

	exps := ParseExperiences(doc, fixedNow, false)
	require.Len(t, exps, 2)

	e := exps[0]
	assert.Equal(t, strPtr("Acme Corporation"), e.Organization)
	assert.Equal(t, strPtr("Senior Engineer"), e.Position)
	assert.Equal(t, strPtr("Boston"), e.City)
	assert.Equal(t, strPtr("ma"), e.State, "state不做首字母大写")
	assert.Equal(t, strPtr("US"), e.CountryCode)
	assert.Equal(t, intPtr(2), e.StartMonth)
	assert.Equal(t, intPtr(2019), e.StartYear)
	assert.Equal(t, intPtr(3), e.EndMonth)
	assert.Equal(t, intPtr(2024), e.EndYear)
	assert.True(t, e.IsCurrent)
	require.Len(t, e.Bullets, 1)
	assert.Equal(t, "Built APIs\nMentored juniors", e.Bullets[0].Description)

	ibm := exps[1]
	assert.Equal(t, strPtr("IBM"), ibm.Organization, "短名称保留缩写")
	assert.Nil(t, ibm.StartYear)
	assert.False(t, ibm.IsCurrent)
	require.Len(t, ibm.Bullets, 1)
	assert.Equal(t, "", ibm.Bullets[0].Description)
}

func TestParseExperiences_MergesDuplicates(t *testing.T) {
	doc := mustParse(t, `<resume>
		<experience>
			<job><employer>Globex</employer><title>Lead</title><start iso8601="2015-01-01"/><end iso8601="2018-06-01"/>
				<description>Built APIs</description></job>
			<job><employer>Other Co</employer><title>Dev</title></job>
		</experience>
		<experience>
			<job><employer>Globex</employer><title>Lead</title><start iso8601="2015-01-01"/><end iso8601="2018-06-01"/>
				<description>Led team</description></job>
		</experience>
	</resume>`)

	exps := ParseExperiences(doc, fixedNow, false)
	require.Len(t, exps, 2)
	assert.Equal(t, strPtr("Globex"), exps[0].Organization)
	require.Len(t, exps[0].Bullets, 1)
	assert.Equal(t, "Built APIs\nLed team", exps[0].Bullets[0].Description)
	assert.Equal(t, strPtr("Other Co"), exps[1].Organization)

	again := ParseExperiences(doc, fixedNow, false)
	assert.Equal(t, exps, again)
}

func TestParseExperiences_DedupIsIdempotent(t *testing.T) {
	const src = `<resume><experience>
		<job><employer>Initech</employer><title>Analyst</title><description>Reports</description></job>
		<job><employer>Globex</employer><title>Lead</title><start iso8601="2015-01-01"/><description>Built APIs</description></job>
		<job><employer>Initech</employer><title>Analyst</title><description>Audits</description></job>
		<job><employer>Hooli</employer><title>Dev</title></job>
		<job><employer>Globex</employer><title>Lead</title><start iso8601="2015-01-01"/><description>Led team</description></job>
	</experience></resume>`

	doc := mustParse(t, src)
	first := ParseExperiences(doc, fixedNow, false)
	require.Len(t, first, 3)

	assert.Equal(t, first, ParseExperiences(doc, fixedNow, false), "同一文档重复解析")
	assert.Equal(t, first, ParseExperiences(mustParse(t, src), fixedNow, false), "重新读取文档后解析")

	var orgs []string
	for _, e := range first {
		orgs = append(orgs, *e.Organization)
	}
	assert.Equal(t, []string{"Initech", "Globex", "Hooli"}, orgs, "按首次出现的顺序")
}

func TestParseExperiences_MergeIntoEmptyDescription(t *testing.T) {
	doc := mustParse(t, `<resume><experience>
		<job><employer>Initech</employer><title>Dev</title></job>
		<job><employer>Initech</employer><title>Dev</title><description>TPS reports</description></job>
		<job><employer>Initech</employer><title>Dev</title></job>
	</experience></resume>`)

	exps := ParseExperiences(doc, fixedNow, false)
	require.Len(t, exps, 1)
	assert.Equal(t, "TPS reports", exps[0].Bullets[0].Description)
}

func TestParseExperiences_InvalidDateRange(t *testing.T) {
	doc := mustParse(t, `<resume><experience>
		<job><employer>Hooli</employer><start iso8601="2020-05-01"/><end iso8601="2019-01-01"/></job>
	</experience></resume>`)

	exps := ParseExperiences(doc, fixedNow, false)
	require.Len(t, exps, 1)
	e := exps[0]
	assert.Nil(t, e.StartMonth)
	assert.Nil(t, e.StartYear)
	assert.Nil(t, e.EndMonth)
	assert.Nil(t, e.EndYear)
	assert.False(t, e.IsCurrent)

	// 结束月份就是当前月，但区间倒置，日期清空后不算在职
	doc = mustParse(t, `<resume><experience>
		<job><employer>Hooli</employer><start iso8601="2024-05-01"/><end iso8601="2024-03-01"/></job>
	</experience></resume>`)
	exps = ParseExperiences(doc, fixedNow, false)
	require.Len(t, exps, 1)
	assert.Nil(t, exps[0].EndYear)
	assert.False(t, exps[0].IsCurrent)
}

func TestParseExperiences_NestedJobs(t *testing.T) {
	doc := mustParse(t, `<resume><experience>
		<job><employer>Outer</employer><title>X</title>
			<job><employer>Inner</employer><title>Y</title></job>
		</job>
	</experience></resume>`)

	assert.Len(t, ParseExperiences(doc, fixedNow, true), 2, "历史行为：嵌套job重复计数")

	exps := ParseExperiences(doc, fixedNow, false)
	require.Len(t, exps, 1)
	assert.Equal(t, strPtr("Outer"), exps[0].Organization)
}

func TestParseExperiences_Truncation(t *testing.T) {
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	doc := mustParse(t, `<resume><experience><job><employer>`+string(long)+`</employer><title>`+string(long)+`</title></job></experience></resume>`)

	exps := ParseExperiences(doc, fixedNow, false)
	require.Len(t, exps, 1)
	assert.Len(t, *exps[0].Organization, 100)
	assert.Len(t, *exps[0].Position, 100)
}
