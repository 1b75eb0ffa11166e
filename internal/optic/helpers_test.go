package optic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/bgxml"
)

func mustParse(t *testing.T, xml string) bgxml.Node {
	t.Helper()
	doc, err := bgxml.Parse([]byte(xml))
	require.NoError(t, err)
	return doc
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
