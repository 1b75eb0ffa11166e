package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesReader(s string) io.Reader { return bytes.NewReader([]byte(s)) }

func TestSubmitUpload(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.proc.SubmitUpload(context.Background(), UploadRequest{
		BGXML:            []byte(sampleXML),
		Original:         []byte("%PDF-1.4 test"),
		OriginalFilename: "Jane Doe.PDF",
		TalentPoolIDs:    []int64{3},
	})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, storage.BGXMLObjectKey(res.SubmissionUUID), res.BGXMLPathOSS)
	assert.Equal(t, storage.MD5Hex([]byte(sampleXML)), res.BGXMLMD5)

	require.Len(t, f.repo.submissions, 1)
	sub := f.repo.submissions[0]
	assert.Equal(t, constants.StatusPendingParse, sub.ProcessingStatus)
	assert.Equal(t, constants.SourceChannelAPI, sub.SourceChannel)
	assert.Equal(t, storage.OriginalObjectKey(res.SubmissionUUID, ".pdf"), sub.OriginalFilePathOSS)
	assert.True(t, fixedNow.Equal(sub.SubmissionTimestamp))

	require.Len(t, f.publisher.msgs, 1)
	pub := f.publisher.msgs[0]
	assert.Equal(t, "resume.events.exchange", pub.exchange)
	assert.Equal(t, "bg.xml.ready", pub.routingKey)
	msg, ok := pub.data.(storage.BGXMLReadyMessage)
	require.True(t, ok)
	assert.Equal(t, res.SubmissionUUID, msg.SubmissionUUID)
	assert.Equal(t, []int64{3}, msg.TalentPoolIDs)
	assert.NoError(t, validate.Struct(msg))
}

func TestSubmitUpload_Duplicate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.proc.SubmitUpload(ctx, UploadRequest{BGXML: []byte(sampleXML)})
	require.NoError(t, err)

	second, err := f.proc.SubmitUpload(ctx, UploadRequest{BGXML: []byte(sampleXML)})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
	require.NotNil(t, second)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.SubmissionUUID, second.SubmissionUUID)
	assert.Len(t, f.publisher.msgs, 1)
}

func TestSubmitUpload_RollsBackDedupOnFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("channel closed")

	_, err := f.proc.SubmitUpload(context.Background(), UploadRequest{
		BGXML:            []byte(sampleXML),
		Original:         []byte("%PDF-1.4 test"),
		OriginalFilename: "cv.pdf",
	})
	assert.ErrorIs(t, err, ErrPublishMessageFailed)
	assert.Equal(t, []string{storage.MD5Hex([]byte(sampleXML))}, f.deduper.removed)

	// 提交记录标记为失败，已上传的对象被删除
	require.Len(t, f.repo.submissions, 1)
	failedUUID := f.repo.submissions[0].SubmissionUUID
	assert.Contains(t, f.repo.failed[failedUUID], "upload aborted")
	assert.Empty(t, f.objects.xml)
	assert.Empty(t, f.objects.originals)

	// 回滚后可以重新提交
	f.publisher.err = nil
	_, err = f.proc.SubmitUpload(context.Background(), UploadRequest{BGXML: []byte(sampleXML)})
	assert.NoError(t, err)
}

func TestSubmitUpload_StoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.objects.uploadErr = errors.New("bucket missing")

	_, err := f.proc.SubmitUpload(context.Background(), UploadRequest{BGXML: []byte(sampleXML)})
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.Empty(t, f.repo.submissions)
	assert.Empty(t, f.repo.failed)
}

func TestSubmitUpload_EmptyXML(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.proc.SubmitUpload(context.Background(), UploadRequest{BGXML: []byte("   ")})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestOriginalExt(t *testing.T) {
	assert.Equal(t, ".docx", originalExt(nil, "cv.DOCX"))
	assert.Equal(t, ".pdf", originalExt([]byte("%PDF-1.7\n"), "upload"))
}
