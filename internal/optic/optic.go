// Package optic 将BG XML节点树规范化为候选人记录。
// 所有函数都是纯函数，不持有跨调用的状态，可以在多个goroutine中并发处理不同的简历。
package optic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/types"
)

// ErrNilDocument 传入了空的节点树
var ErrNilDocument = errors.New("BG文档为空")

// Options 解析选项，零值可直接使用
type Options struct {
	// SkillMiner 额外技能挖掘器，为空时跳过
	SkillMiner SkillMiner
	// LegacyCounts 为true时保留历史计数行为：嵌套job和重复address不去重
	LegacyCounts bool
	// StrictXML 为true时不回退到HTML解析
	StrictXML bool
	// Now 用于判断 is_current，为空时使用 time.Now
	Now func() time.Time
	// Logger 为零值时不输出
	Logger zerolog.Logger
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Parse 解析原始BG响应并生成候选人记录。
// 严格XML解析失败时回退到HTML解析（StrictXML 时不回退），无法解码的输入返回 bgxml.ErrUndecodable。
func Parse(data []byte, resumeText string, opts Options) (*types.Candidate, error) {
	parse := bgxml.ParseLenient
	if opts.StrictXML {
		parse = bgxml.Parse
	}
	doc, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析BG响应失败: %w", err)
	}
	return ParseOpticXML(doc, resumeText, opts)
}

// ParseOpticXML 组合各字段解析器生成候选人记录。
// resumeText 为空时使用文档自身的文本，用于LinkedIn和技能挖掘。
func ParseOpticXML(doc bgxml.Node, resumeText string, opts Options) (*types.Candidate, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if strings.TrimSpace(resumeText) == "" {
		resumeText = documentText(doc)
	}

	emails := ParseEmails(doc)
	first, last := ParseName(doc)
	// 有邮箱但没有姓名时，用第一个邮箱作为名字
	if len(emails) > 0 && first == nil && last == nil {
		addr := emails[0].Address
		first = &addr
	}

	c := &types.Candidate{
		FirstName:       first,
		LastName:        last,
		Emails:          emails,
		Phones:          ParsePhones(doc, opts.Logger),
		Addresses:       ParseAddresses(doc, opts.LegacyCounts),
		WorkExperiences: ParseExperiences(doc, opts.now(), opts.LegacyCounts),
		Educations:      ParseEducations(doc, opts.LegacyCounts, opts.Logger),
		Skills:          ParseSkills(doc, resumeText, opts.SkillMiner, opts.Logger),
		SocialNetworks:  ExtractLinkedInURLs(resumeText),
		Summary:         ParseSummary(doc),
		ResumeText:      resumeText,
		References:      ParseReferences(doc),
		TalentPoolIDs:   types.TalentPoolIDs{Add: nil},
	}

	opts.Logger.Debug().
		Int("emails", len(c.Emails)).
		Int("phones", len(c.Phones)).
		Int("experiences", len(c.WorkExperiences)).
		Int("educations", len(c.Educations)).
		Int("skills", len(c.Skills)).
		Msg("BG文档解析完成")
	return c, nil
}

// documentText 文档的纯文本，每行去掉首尾空白并丢弃空行
func documentText(doc bgxml.Node) string {
	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
