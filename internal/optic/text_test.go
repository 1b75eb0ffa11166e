package optic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagText(t *testing.T) {
	doc := mustParse(t, `<job>
		<employer>  Acme
		Widgets </employer>
		<city>new york</city>
		<title>   </title>
		<description>Fixed bugs?</description>
		<description>Shipped v2</description>
	</job>`)

	assert.Equal(t, "Acme\n\t\tWidgets", TagText(doc, "employer"))
	assert.Equal(t, "Acme \t\tWidgets", TagText(doc, "employer", CollapseNewlines()))
	assert.Equal(t, "New York", TagText(doc, "city", TitleCase()))
	assert.Equal(t, "", TagText(doc, "title"), "纯空白视为不存在")
	assert.Equal(t, "", TagText(doc, "missing"))
	assert.Equal(t, "", TagText(nil, "employer"))

	assert.Equal(t, "Fixed bugs?|Shipped v2", TagText(doc, "description"))
	assert.Equal(t, "Fixed bugs|Shipped v2", TagText(doc, "description", WithoutQuestions()))
}

func TestTagText_DescriptionTrailingSeparator(t *testing.T) {
	doc := mustParse(t, `<job><description>One</description><description> </description></job>`)
	assert.Equal(t, "One", TagText(doc, "description"))
}

func TestScrubName(t *testing.T) {
	assert.Equal(t, "Obrien", ScrubName("o'brien"))
	assert.Equal(t, "Mary Ann", ScrubName("MARY ANN."))
	assert.Equal(t, "", ScrubName("..."))
	assert.Equal(t, 35, len([]rune(ScrubName("abcdefghijklmnopqrstuvwxyzabcdefghijklmnop"))))
}

func TestScrubString(t *testing.T) {
	assert.Equal(t, "415 555 0100", ScrubString("\t415\n555\t\t0100  "))
	assert.Equal(t, "", ScrubString(" \n\t"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
}
