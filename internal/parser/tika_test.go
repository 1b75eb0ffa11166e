package parser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTikaExtractor(t *testing.T) {
	e := NewTikaExtractor("http://localhost:9998/")
	assert.Equal(t, "http://localhost:9998", e.ServerURL)
	assert.Equal(t, 60*time.Second, e.Client.Timeout, "默认超时应为60秒")

	e = NewTikaExtractor("http://tika:9998",
		WithTimeout(10*time.Second),
		WithOCRLanguage("eng"),
		WithPDFOCRStrategy("auto"),
	)
	assert.Equal(t, 10*time.Second, e.Client.Timeout)
	assert.Equal(t, "eng", e.ocrLanguage)
	assert.Equal(t, "auto", e.ocrStrategy)
}

func TestTikaExtractor_ExtractText(t *testing.T) {
	var gotHeaders http.Header
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("\n  Jane Doe\nSoftware Engineer  \n"))
	}))
	defer server.Close()

	e := NewTikaExtractor(server.URL, WithOCRLanguage("eng"), WithPDFOCRStrategy("ocr_and_text"))
	text, err := e.ExtractText(context.Background(), []byte("%PDF-1.4 fake"), "jane.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", text)

	assert.Equal(t, "%PDF-1.4 fake", string(gotBody))
	assert.Equal(t, "application/pdf", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "text/plain", gotHeaders.Get("Accept"))
	assert.Equal(t, "jane.pdf", gotHeaders.Get("X-Tika-Resource-Name"))
	assert.Equal(t, "eng", gotHeaders.Get("X-Tika-OCRLanguage"))
	assert.Equal(t, "ocr_and_text", gotHeaders.Get("X-Tika-PDFOcrStrategy"))
}

func TestTikaExtractor_ImageSkipsPDFStrategy(t *testing.T) {
	var strategy, contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		strategy = r.Header.Get("X-Tika-PDFOcrStrategy")
		contentType = r.Header.Get("Content-Type")
		w.Write([]byte("ocr text"))
	}))
	defer server.Close()

	e := NewTikaExtractor(server.URL, WithPDFOCRStrategy("ocr_only"))
	text, err := e.ExtractText(context.Background(), []byte("fake"), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "ocr text", text)
	assert.Empty(t, strategy)
	assert.Equal(t, "image/png", contentType)
}

func TestTikaExtractor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unsupported", http.StatusUnsupportedMediaType, "", ErrUnsupportedFormat},
		{"unprocessable", http.StatusUnprocessableEntity, "", ErrUnsupportedFormat},
		{"empty", http.StatusOK, "  \n ", ErrEmptyText},
		{"server error", http.StatusInternalServerError, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewTikaExtractor(server.URL).ExtractText(context.Background(), []byte("x"), "cv.docx")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTikaExtractor_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewTikaExtractor(url, WithTimeout(time.Second)).ExtractText(context.Background(), []byte("x"), "cv.pdf")
	assert.Error(t, err)
}

func TestTikaExtractor_RateLimitRetriesBusyServer(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	e := NewTikaExtractor(server.URL, WithRateLimit(600, 1))
	require.NotNil(t, e.limiter)
	text, err := e.ExtractText(context.Background(), []byte("x"), "cv.docx")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 2, calls)

	// 不可重试的状态码只请求一次
	calls = 0
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnsupportedMediaType)
	}))
	defer bad.Close()
	_, err = NewTikaExtractor(bad.URL, WithRateLimit(600, 3)).ExtractText(context.Background(), []byte("x"), "cv.docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 1, calls)
}
