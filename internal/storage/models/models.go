package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ResumeSubmission 一次简历投递：原始文件 + BG 解析结果
type ResumeSubmission struct {
	SubmissionUUID      string    `gorm:"type:char(36);primaryKey"`
	SubmissionTimestamp time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_rs_submission_timestamp"`
	SourceChannel       string    `gorm:"type:varchar(100)"`
	OriginalFilename    string    `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string    `gorm:"type:varchar(1024)"`
	BGXMLPathOSS        string    `gorm:"type:varchar(1024)"`
	// BG XML 内容的MD5，同时是解析缓存的键
	BGXMLMD5         string    `gorm:"type:char(32);index:idx_rs_bg_xml_md5"`
	ProcessingStatus string    `gorm:"type:varchar(50);default:'PENDING_PARSE';index:idx_rs_processing_status"`
	ParserVersion    string    `gorm:"type:varchar(50)"`
	ErrorMessage     string    `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ResumeSubmission) TableName() string {
	return "resume_submissions"
}

// ParsedCandidate 规范化后的候选人记录，完整结构存为JSON
type ParsedCandidate struct {
	SubmissionUUID  string         `gorm:"type:char(36);primaryKey"`
	FirstName       string         `gorm:"type:varchar(64)"`
	LastName        string         `gorm:"type:varchar(64)"`
	PrimaryEmail    string         `gorm:"type:varchar(255);index:idx_cp_primary_email"`
	PrimaryPhone    string         `gorm:"type:varchar(50)"`
	CandidateJSON   datatypes.JSON `gorm:"type:json;not null"`
	ExperienceCount int            `gorm:"default:0"`
	EducationCount  int            `gorm:"default:0"`
	SkillCount      int            `gorm:"default:0"`
	ParserVersion   string         `gorm:"type:varchar(50)"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	ResumeSubmission *ResumeSubmission `gorm:"foreignKey:SubmissionUUID;references:SubmissionUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ParsedCandidate) TableName() string {
	return "candidates_parsed"
}

// ToJSON 序列化任意值为 datatypes.JSON
func ToJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
