package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestChainExtractor_FirstNonEmptyWins(t *testing.T) {
	failing := &fakeExtractor{err: errors.New("boom")}
	empty := &fakeExtractor{text: "   "}
	ok := &fakeExtractor{text: "resume text"}
	never := &fakeExtractor{text: "unused"}

	chain := NewChainExtractor(zerolog.Nop(), failing, nil, empty, ok, never)
	text, err := chain.ExtractText(context.Background(), []byte("data"), "cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "resume text", text)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 0, never.calls)
}

func TestChainExtractor_AllFail(t *testing.T) {
	chain := NewChainExtractor(zerolog.Nop(),
		&fakeExtractor{err: ErrUnsupportedFormat},
		&fakeExtractor{},
	)
	_, err := chain.ExtractText(context.Background(), nil, "cv.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = NewChainExtractor(zerolog.Nop()).ExtractText(context.Background(), nil, "cv.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestChainExtractor_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := &fakeExtractor{text: "late"}
	chain := NewChainExtractor(zerolog.Nop(), &fakeExtractor{err: errors.New("canceled")}, second)

	_, err := chain.ExtractText(ctx, nil, "cv.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.calls)
}

func TestContentTypeDetection(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(nil, "cv.PDF"))
	assert.Equal(t, "image/png", ContentType([]byte("\x89PNG\r\n\x1a\n0000"), "upload"))

	assert.True(t, IsPDF([]byte("%PDF-1.7"), "upload"))
	assert.True(t, IsPDF(nil, "cv.pdf"))
	assert.False(t, IsPDF([]byte("%P"), "cv.txt"))

	assert.True(t, IsImage(nil, "scan.jpg"))
	assert.False(t, IsImage([]byte("%PDF-1.7"), "cv.pdf"))
}
