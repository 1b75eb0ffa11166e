package optic

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/types"
)

const daysPerMonth = 30

// SkillMiner 从纯文本中挖掘额外技能
type SkillMiner interface {
	Mine(text string) []string
}

// ParseSkills 解析 canonskill 并按名称忽略大小写去重，先出现者保留。
// miner 不为空时，会把从 resumeText 中挖掘到的新技能追加在后面。
func ParseSkills(doc bgxml.Node, resumeText string, miner SkillMiner, logger zerolog.Logger) []types.Skill {
	skills := make([]types.Skill, 0)
	seen := make(map[string]struct{})
	add := func(s types.Skill) {
		key := strings.ToLower(s.Name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		skills = append(skills, s)
	}

	for _, n := range doc.FindAll("canonskill") {
		name := attrText(n, "name")
		if name == "" {
			name = strings.TrimSpace(n.Text())
		}
		if name == "" {
			continue
		}
		skill := types.Skill{Name: name}
		skill.LastUsedDate, skill.MonthsUsed = skillUsage(n, logger)
		add(skill)
	}

	if miner != nil && strings.TrimSpace(resumeText) != "" {
		for _, name := range miner.Mine(resumeText) {
			if name = strings.TrimSpace(name); name != "" {
				add(types.Skill{Name: name})
			}
		}
	}
	return skills
}

// skillUsage start/end 是从公元1年1月1日起的天数，两者都存在时才计算
func skillUsage(n bgxml.Node, logger zerolog.Logger) (lastUsed *string, months *int) {
	startRaw, endRaw := attrText(n, "start"), attrText(n, "end")
	if startRaw == "" || endRaw == "" {
		return nil, nil
	}
	start, err := strconv.Atoi(startRaw)
	if err != nil {
		logger.Debug().Err(err).Str("start", startRaw).Msg("技能开始天数无法解析")
		return nil, nil
	}
	end, err := strconv.Atoi(endRaw)
	if err != nil {
		logger.Debug().Err(err).Str("end", endRaw).Msg("技能结束天数无法解析")
		return nil, nil
	}

	if m := (end - start) / daysPerMonth; m > 0 {
		months = &m
	}
	d := DaysSinceEpochToDate(end).Format("2006-01-02")
	return &d, months
}
