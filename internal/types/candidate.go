package types

// PhoneLabel 电话类型标签
type PhoneLabel string

const (
	PhoneLabelMobile  PhoneLabel = "Mobile"
	PhoneLabelHome    PhoneLabel = "Home"
	PhoneLabelWork    PhoneLabel = "Work"
	PhoneLabelHomeFax PhoneLabel = "Home Fax"
	PhoneLabelOther   PhoneLabel = "Other"
)

// SocialNetworkLinkedIn LinkedIn社交网络名称
const SocialNetworkLinkedIn = "LinkedIn"

// Candidate 规范化后的候选人记录，是整个解析流程的最终输出
type Candidate struct {
	FirstName       *string         `json:"first_name"`
	LastName        *string         `json:"last_name"`
	Emails          []Email         `json:"emails"`
	Phones          []Phone         `json:"phones"`
	Addresses       []Address       `json:"addresses"`
	WorkExperiences []Experience    `json:"work_experiences"`
	Educations      []Education     `json:"educations"`
	Skills          []Skill         `json:"skills"`
	SocialNetworks  []SocialNetwork `json:"social_networks"`
	Summary         string          `json:"summary"`
	ResumeText      string          `json:"resume_text"`
	References      *string         `json:"references"`
	TalentPoolIDs   TalentPoolIDs   `json:"talent_pool_ids"`
}

// TalentPoolIDs 由调用方填充的人才库ID
type TalentPoolIDs struct {
	Add []int64 `json:"add"`
}

// Email 邮箱
type Email struct {
	Address string `json:"address"`
}

// Phone 电话
type Phone struct {
	Value string     `json:"value"`
	Label PhoneLabel `json:"label"`
}

// Address 地址，所有字段均可为空
type Address struct {
	AddressLine1 *string `json:"address_line_1"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	CountryCode  *string `json:"country_code"`
	ZipCode      *string `json:"zip_code"`
}

// Experience 工作经历
type Experience struct {
	Organization *string            `json:"organization"`
	Position     *string            `json:"position"`
	City         *string            `json:"city"`
	State        *string            `json:"state"`
	CountryCode  *string            `json:"country_code"`
	StartMonth   *int               `json:"start_month"`
	StartYear    *int               `json:"start_year"`
	EndMonth     *int               `json:"end_month"`
	EndYear      *int               `json:"end_year"`
	IsCurrent    bool               `json:"is_current"`
	Bullets      []ExperienceBullet `json:"bullets"`
}

// ExperienceBullet 工作经历描述
type ExperienceBullet struct {
	Description string `json:"description"`
}

// Education 教育经历
type Education struct {
	SchoolName  *string  `json:"school_name"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	CountryCode *string  `json:"country_code"`
	Degrees     []Degree `json:"degrees"`
}

// Degree 学位
type Degree struct {
	Type       *string        `json:"type"`
	Title      *string        `json:"title"`
	StartMonth *int           `json:"start_month"`
	StartYear  *int           `json:"start_year"`
	EndMonth   *int           `json:"end_month"`
	EndYear    *int           `json:"end_year"`
	GPANum     *float64       `json:"gpa_num"`
	Bullets    []DegreeBullet `json:"bullets"`
}

// DegreeBullet 学位的专业与备注
type DegreeBullet struct {
	Major    *string `json:"major"`
	Comments *string `json:"comments"`
}

// Skill 技能
type Skill struct {
	Name         string  `json:"name"`
	LastUsedDate *string `json:"last_used_date"`
	MonthsUsed   *int    `json:"months_used"`
}

// SocialNetwork 社交网络主页
type SocialNetwork struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
}
