package parser

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEinoPDFExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e, err := NewEinoPDFExtractor(ctx, WithEinoTimeout(5*time.Second), WithEinoLogger(zerolog.Nop()))
	require.NoError(t, err, "创建PDF提取器不应返回错误")
	require.NotNil(t, e.parser)
	assert.Equal(t, 5*time.Second, e.timeout)
}

func TestEinoPDFExtractor_RejectsNonPDF(t *testing.T) {
	e, err := NewEinoPDFExtractor(context.Background())
	require.NoError(t, err)

	_, err = e.ExtractText(context.Background(), []byte("\x89PNG\r\n\x1a\n"), "scan.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEinoPDFExtractor_BrokenPDF(t *testing.T) {
	e, err := NewEinoPDFExtractor(context.Background())
	require.NoError(t, err)

	_, err = e.ExtractText(context.Background(), []byte("%PDF-1.4 not really a pdf"), "broken.pdf")
	assert.Error(t, err)
}
