package optic

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/types"
)

type stubMiner struct {
	skills []string
	calls  int
}

func (m *stubMiner) Mine(text string) []string {
	m.calls++
	return m.skills
}

func TestParseSkills(t *testing.T) {
	doc := mustParse(t, `<resume><skills>
		<canonskill name="Go" start="730000" end="730300"/>
		<canonskill name="go" start="1" end="900000"/>
		<canonskill> Python </canonskill>
		<canonskill name="SQL" start="730000"/>
		<canonskill name="Excel" start="730300" end="730000"/>
		<canonskill name="Java" start="abc" end="730000"/>
		<canonskill name=" "></canonskill>
	</skills></resume>`)

	skills := ParseSkills(doc, "", nil, zerolog.Nop())
	require.Len(t, skills, 5)

	assert.Equal(t, types.Skill{Name: "Go", LastUsedDate: strPtr("2000-06-30"), MonthsUsed: intPtr(10)}, skills[0])
	assert.Equal(t, types.Skill{Name: "Python"}, skills[1])
	assert.Equal(t, types.Skill{Name: "SQL"}, skills[2], "只有start时不计算")
	assert.Nil(t, skills[3].MonthsUsed, "负数月份丢弃")
	assert.NotNil(t, skills[3].LastUsedDate)
	assert.Equal(t, types.Skill{Name: "Java"}, skills[4])
}

func TestParseSkills_MinedSkillsAppended(t *testing.T) {
	doc := mustParse(t, `<resume><canonskill name="Python"/></resume>`)
	miner := &stubMiner{skills: []string{"python", "Kubernetes", "kubernetes", ""}}

	skills := ParseSkills(doc, "python and kubernetes", miner, zerolog.Nop())
	assert.Equal(t, []types.Skill{{Name: "Python"}, {Name: "Kubernetes"}}, skills)
	assert.Equal(t, 1, miner.calls)

	ParseSkills(doc, "   ", miner, zerolog.Nop())
	assert.Equal(t, 1, miner.calls, "空文本不触发挖掘")
}

func TestParseSkills_DedupIsIdempotent(t *testing.T) {
	const src = `<resume><skills>
		<canonskill name="Python"/>
		<canonskill name="SQL" start="730000" end="730300"/>
		<canonskill name="python" start="1" end="2"/>
		<canonskill name="Go"/>
		<canonskill name="sql"/>
	</skills></resume>`
	miner := &stubMiner{skills: []string{"Kubernetes", "GO"}}

	doc := mustParse(t, src)
	first := ParseSkills(doc, "text", miner, zerolog.Nop())

	var names []string
	for _, s := range first {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Python", "SQL", "Go", "Kubernetes"}, names)
	assert.Equal(t, first, ParseSkills(doc, "text", miner, zerolog.Nop()))
	assert.Equal(t, first, ParseSkills(mustParse(t, src), "text", miner, zerolog.Nop()))
}
