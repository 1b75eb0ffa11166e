package optic

import (
	"strings"
	"time"

	"resume-parser-go/internal/bgxml"
)

// bgEpoch BG技能日期以 0001-01-01 为第0天
var bgEpoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

var isoLayouts = []struct {
	layout   string
	hasMonth bool
}{
	{"2006-01-02", true},
	{"2006-01", true},
	{"2006", false},
}

// tagDate 从 iso8601 属性读出的日期，只有年份时 hasMonth 为false
type tagDate struct {
	t        time.Time
	hasMonth bool
}

func (d *tagDate) year() *int {
	if d == nil {
		return nil
	}
	y := d.t.Year()
	return &y
}

func (d *tagDate) month() *int {
	if d == nil || !d.hasMonth {
		return nil
	}
	m := int(d.t.Month())
	return &m
}

// parseISODate 解析 YYYY-MM-DD / YYYY-MM / YYYY
func parseISODate(s string) *tagDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range isoLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return &tagDate{t: t, hasMonth: l.hasMonth}
		}
	}
	return nil
}

// readDateTag 读取 parent 下 tag 节点的 iso8601 属性，缺失或格式错误返回nil
func readDateTag(parent bgxml.Node, tag string) *tagDate {
	if parent == nil {
		return nil
	}
	n := parent.FindFirst(tag)
	if n == nil {
		return nil
	}
	return parseISODate(attrText(n, "iso8601"))
}

// dateRange 起止日期。开始晚于结束时整段视为无效
type dateRange struct {
	start, end *tagDate
}

func (r dateRange) normalized() dateRange {
	if r.start != nil && r.end != nil && r.start.t.After(r.end.t) {
		return dateRange{}
	}
	return r
}

// endsIn 结束年月是否与给定时间相同
func (r dateRange) endsIn(now time.Time) bool {
	if r.end == nil || !r.end.hasMonth {
		return false
	}
	return r.end.t.Year() == now.Year() && r.end.t.Month() == now.Month()
}

// DaysSinceEpochToDate 将BG的天数偏移转换为日期
func DaysSinceEpochToDate(days int) time.Time {
	return bgEpoch.AddDate(0, 0, days)
}
