package optic

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/types"
)

const (
	maxOrganizationLength = 100
	maxPositionLength     = 100
	// 不超过该长度的公司名视为缩写，保留原样
	acronymMaxLength = 5
)

// bulletDelimiter 简历中出现过的各种项目符号，包括编码错乱后的字符。
// 组合符号必须排在单字符之前。
var bulletDelimiter = regexp.MustCompile(`•≅_|≅_| \* |■|•|➢|→|â|˘|\n{2,3}`)

// SplitBullets 按项目符号切分描述，去掉空白片段
func SplitBullets(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := bulletDelimiter.Split(text, -1)
	bullets := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			bullets = append(bullets, p)
		}
	}
	return bullets
}

// experienceKey 工作经历指纹，nil 字段用-1表示
type experienceKey struct {
	organization, position string
	hasOrg, hasPos         bool
	startMonth, startYear  int
	endMonth, endYear      int
}

func intOrMinus(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func fingerprint(e *types.Experience) experienceKey {
	k := experienceKey{
		startMonth: intOrMinus(e.StartMonth),
		startYear:  intOrMinus(e.StartYear),
		endMonth:   intOrMinus(e.EndMonth),
		endYear:    intOrMinus(e.EndYear),
	}
	if e.Organization != nil {
		k.organization, k.hasOrg = *e.Organization, true
	}
	if e.Position != nil {
		k.position, k.hasPos = *e.Position, true
	}
	return k
}

// ParseExperiences 解析所有 experience 下的 job。
// 指纹相同的经历合并到第一次出现的记录中，描述以换行追加。
func ParseExperiences(doc bgxml.Node, now time.Time, legacyCounts bool) []types.Experience {
	experiences := make([]types.Experience, 0)
	index := make(map[experienceKey]int)

	for _, job := range collectNested(doc, "experience", "job", legacyCounts) {
		exp, text := parseJob(job, now)
		key := fingerprint(&exp)
		if i, ok := index[key]; ok {
			mergeBullet(&experiences[i], text)
			continue
		}
		index[key] = len(experiences)
		experiences = append(experiences, exp)
	}
	return experiences
}

// collectNested 在wrapper下收集item节点。
// legacyCounts为true时保留历史行为：嵌套的wrapper和嵌套的item都会重复计数。
func collectNested(doc bgxml.Node, wrapper, item string, legacyCounts bool) []bgxml.Node {
	wrappers := doc.FindAll(wrapper)
	if legacyCounts {
		return bgxml.FindAllWithin(wrappers, item)
	}
	var out []bgxml.Node
	for _, w := range wrappers {
		if bgxml.HasAncestor(w, wrapper) {
			continue
		}
		for _, n := range w.FindAll(item) {
			if bgxml.HasAncestor(n, item) {
				continue
			}
			out = append(out, n)
		}
	}
	return out
}

func mergeBullet(e *types.Experience, text string) {
	if text == "" {
		return
	}
	if len(e.Bullets) == 0 {
		e.Bullets = []types.ExperienceBullet{{Description: text}}
		return
	}
	first := &e.Bullets[0]
	if first.Description == "" {
		first.Description = text
		return
	}
	first.Description += "\n" + text
}

func parseJob(job bgxml.Node, now time.Time) (types.Experience, string) {
	org := TagText(job, "employer", CollapseNewlines())
	if utf8.RuneCountInString(org) > acronymMaxLength {
		org = titleCase(org)
	}
	org = truncate(org, maxOrganizationLength)
	position := truncate(TagText(job, "title", CollapseNewlines()), maxPositionLength)

	dates := dateRange{
		start: readDateTag(job, "start"),
		end:   readDateTag(job, "end"),
	}.normalized()

	addr := readAddress(job.FindFirst("address"))
	text := strings.Join(SplitBullets(TagText(job, descriptionTag, WithoutQuestions())), "\n")

	return types.Experience{
		Organization: nullable(org),
		Position:     nullable(position),
		City:         nullable(addr.city),
		State:        nullable(addr.state),
		CountryCode:  nullable(addr.country),
		StartMonth:   dates.start.month(),
		StartYear:    dates.start.year(),
		EndMonth:     dates.end.month(),
		EndYear:      dates.end.year(),
		IsCurrent:    dates.endsIn(now),
		Bullets:      []types.ExperienceBullet{{Description: text}},
	}, text
}
