package processor

import (
	"errors"
	"fmt"
)

var (
	ErrBGXMLDownloadFailed  = errors.New("下载BG XML失败")
	ErrParseFailed          = errors.New("解析BG XML失败")
	ErrInvalidMessage       = errors.New("消息格式无效")
	ErrStoreFailed          = errors.New("上传文件失败")
	ErrPublishMessageFailed = errors.New("发布消息失败")
	ErrDatabaseFailed       = errors.New("数据库操作失败")
	ErrDuplicateSubmission  = errors.New("重复的BG XML")
)

// ResumeProcessError 带操作与提交UUID的错误
type ResumeProcessError struct {
	SubmissionUUID string
	Op             string
	BaseErr        error
	Detail         string
	// Cause 底层错误，参与 errors.Is/As
	Cause error
}

func (e *ResumeProcessError) Error() string {
	msg := fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.SubmissionUUID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResumeProcessError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Cause}
}

func newProcessError(uuid, op string, base, cause error, detail string) error {
	return &ResumeProcessError{
		SubmissionUUID: uuid,
		Op:             op,
		BaseErr:        base,
		Detail:         detail,
		Cause:          cause,
	}
}

func NewDownloadError(uuid string, cause error) error {
	return newProcessError(uuid, "download", ErrBGXMLDownloadFailed, cause, "")
}

func NewParseError(uuid string, cause error) error {
	return newProcessError(uuid, "parse", ErrParseFailed, cause, "")
}

func NewInvalidMessageError(uuid, detail string, cause error) error {
	return newProcessError(uuid, "validate", ErrInvalidMessage, cause, detail)
}

func NewStoreError(uuid string, cause error) error {
	return newProcessError(uuid, "store", ErrStoreFailed, cause, "")
}

func NewPublishError(uuid string, cause error) error {
	return newProcessError(uuid, "publish", ErrPublishMessageFailed, cause, "")
}

func NewDatabaseError(uuid string, cause error) error {
	return newProcessError(uuid, "database", ErrDatabaseFailed, cause, "")
}
