package optic

import (
	"strconv"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/types"
)

// ParseEducations 每个 school 节点产出一条教育经历，不做去重
func ParseEducations(doc bgxml.Node, legacyCounts bool, logger zerolog.Logger) []types.Education {
	educations := make([]types.Education, 0)
	for _, school := range collectNested(doc, "education", "school", legacyCounts) {
		educations = append(educations, parseSchool(school, logger))
	}
	return educations
}

func parseSchool(school bgxml.Node, logger zerolog.Logger) types.Education {
	addr := readAddress(school.FindFirst("address"))

	dates := dateRange{
		start: readDateTag(school, "start"),
		end:   readDateTag(school, "end"),
	}
	// 毕业日期优先于结束日期
	if completion := readDateTag(school, "completiondate"); completion != nil {
		dates.end = completion
	}
	dates = dates.normalized()

	degree := types.Degree{
		Type:       nullable(attrText(school.FindFirst("degree"), "name")),
		Title:      nullable(TagText(school, "degree", CollapseNewlines())),
		StartMonth: dates.start.month(),
		StartYear:  dates.start.year(),
		EndMonth:   dates.end.month(),
		EndYear:    dates.end.year(),
		GPANum:     readGPA(school, logger),
		Bullets: []types.DegreeBullet{{
			Major:    nullable(TagText(school, "major", CollapseNewlines())),
			Comments: nullable(TagText(school, "honors", CollapseNewlines())),
		}},
	}

	return types.Education{
		SchoolName:  nullable(TagText(school, "institution", CollapseNewlines())),
		City:        nullable(addr.city),
		State:       nullable(addr.state),
		CountryCode: nullable(addr.country),
		Degrees:     []types.Degree{degree},
	}
}

func readGPA(school bgxml.Node, logger zerolog.Logger) *float64 {
	raw := attrText(school.FindFirst("gpa"), "value")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logger.Debug().Err(err).Str("gpa", raw).Msg("GPA无法解析")
		return nil
	}
	return &v
}
