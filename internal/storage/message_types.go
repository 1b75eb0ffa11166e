package storage

import "time"

// BGXMLReadyMessage BG 解析结果就绪消息，来自 q.bg_xml_ready
type BGXMLReadyMessage struct {
	SubmissionUUID      string    `json:"submission_uuid" validate:"required,uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp,omitempty"`
	SourceChannel       string    `json:"source_channel,omitempty"`
	// BG XML 在 bg-xml 桶中的对象键
	BGXMLPathOSS string `json:"bg_xml_path_oss" validate:"required"`
	// 原始简历在 originals 桶中的对象键，可为空
	OriginalFilePathOSS string `json:"original_file_path_oss,omitempty"`
	OriginalFilename    string `json:"original_filename,omitempty"`
	// 上游已提取的纯文本，优先于重新提取
	ResumeText    string  `json:"resume_text,omitempty"`
	TalentPoolIDs []int64 `json:"talent_pool_ids,omitempty" validate:"dive,gt=0"`
}

// CandidateParsedEvent 候选人解析完成事件，经 outbox 投递
type CandidateParsedEvent struct {
	MessageID      string    `json:"message_id"`
	SubmissionUUID string    `json:"submission_uuid"`
	ParserVersion  string    `json:"parser_version"`
	BGXMLMD5       string    `json:"bg_xml_md5"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	PrimaryEmail   string    `json:"primary_email,omitempty"`
	ParsedAt       time.Time `json:"parsed_at"`
}
