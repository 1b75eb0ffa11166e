package optic

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/types"
)

func TestParseEducations(t *testing.T) {
	doc := mustParse(t, `<resume><education>
		<school>
			<institution>State University</institution>
			<address><city>austin</city><state>TX</state><country iso3="USA"/></address>
			<degree name="bachelors">Bachelor of Science</degree>
			<major>Computer Science</major>
			<honors>Cum Laude</honors>
			<gpa value="3.8"/>
			<start iso8601="2008-09-01"/>
			<end iso8601="2011-05-01"/>
			<completiondate iso8601="2012-05-15"/>
		</school>
		<school>
			<institution>Community College</institution>
			<gpa value="n/a"/>
		</school>
	</education></resume>`)

	edus := ParseEducations(doc, false, zerolog.Nop())
	require.Len(t, edus, 2)

	e := edus[0]
	assert.Equal(t, strPtr("State University"), e.SchoolName)
	assert.Equal(t, strPtr("Austin"), e.City)
	assert.Equal(t, strPtr("TX"), e.State)
	assert.Equal(t, strPtr("US"), e.CountryCode)
	require.Len(t, e.Degrees, 1)

	gpa := 3.8
	assert.Equal(t, types.Degree{
		Type:       strPtr("bachelors"),
		Title:      strPtr("Bachelor of Science"),
		StartMonth: intPtr(9),
		StartYear:  intPtr(2008),
		EndMonth:   intPtr(5),
		EndYear:    intPtr(2012),
		GPANum:     &gpa,
		Bullets: []types.DegreeBullet{{
			Major:    strPtr("Computer Science"),
			Comments: strPtr("Cum Laude"),
		}},
	}, e.Degrees[0])

	cc := edus[1]
	require.Len(t, cc.Degrees, 1)
	assert.Nil(t, cc.Degrees[0].GPANum)
	assert.Nil(t, cc.Degrees[0].Type)
	assert.Equal(t, []types.DegreeBullet{{}}, cc.Degrees[0].Bullets)
}

func TestParseEducations_CompletionDateInvalidatesRange(t *testing.T) {
	doc := mustParse(t, `<resume><education><school>
		<institution>Tech</institution>
		<start iso8601="2015-09-01"/>
		<end iso8601="2019-05-01"/>
		<completiondate iso8601="2012-05-01"/>
	</school></education></resume>`)

	edus := ParseEducations(doc, false, zerolog.Nop())
	require.Len(t, edus, 1)
	d := edus[0].Degrees[0]
	assert.Nil(t, d.StartMonth)
	assert.Nil(t, d.StartYear)
	assert.Nil(t, d.EndMonth)
	assert.Nil(t, d.EndYear)
}

func TestParseEducations_NoDedup(t *testing.T) {
	doc := mustParse(t, `<resume><education>
		<school><institution>Same</institution></school>
		<school><institution>Same</institution></school>
	</education></resume>`)

	assert.Len(t, ParseEducations(doc, false, zerolog.Nop()), 2)
	assert.Empty(t, ParseEducations(mustParse(t, `<resume/>`), false, zerolog.Nop()))
}
