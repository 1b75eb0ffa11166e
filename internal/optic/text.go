package optic

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"resume-parser-go/internal/bgxml"
)

const descriptionTag = "description"

var (
	newlineRun    = regexp.MustCompile(`[\r\n]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

type textOptions struct {
	removeQuestions  bool
	collapseNewlines bool
	titleCase        bool
}

// TextOption 控制 TagText 的规范化方式
type TextOption func(*textOptions)

// WithoutQuestions 删除所有问号。BG会把无法识别的字符替换为'?'
func WithoutQuestions() TextOption {
	return func(o *textOptions) { o.removeQuestions = true }
}

// CollapseNewlines 将连续换行替换为一个空格
func CollapseNewlines() TextOption {
	return func(o *textOptions) { o.collapseNewlines = true }
}

// TitleCase 按英文规则首字母大写
func TitleCase() TextOption {
	return func(o *textOptions) { o.titleCase = true }
}

// TagText 读取parent下第一个tag节点的文本并规范化。
// description 比较特殊：所有匹配节点的文本用'|'拼接，并去掉末尾的分隔符。
// 节点不存在或内容全为空白时返回空串。
func TagText(parent bgxml.Node, tag string, opts ...TextOption) string {
	if parent == nil {
		return ""
	}
	var o textOptions
	for _, opt := range opts {
		opt(&o)
	}

	var text string
	if tag == descriptionTag {
		nodes := parent.FindAll(tag)
		if len(nodes) == 0 {
			return ""
		}
		parts := make([]string, 0, len(nodes))
		for _, n := range nodes {
			parts = append(parts, n.Text())
		}
		text = strings.TrimRight(strings.TrimSpace(strings.Join(parts, "|")), "|")
	} else {
		n := parent.FindFirst(tag)
		if n == nil {
			return ""
		}
		text = n.Text()
	}
	return normalizeText(text, o)
}

func normalizeText(text string, o textOptions) string {
	if o.removeQuestions {
		text = strings.ReplaceAll(text, "?", "")
	}
	if o.collapseNewlines {
		text = newlineRun.ReplaceAllString(text, " ")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if o.titleCase {
		text = titleCase(text)
	}
	return text
}

// attrText 读取属性并去掉首尾空白
func attrText(n bgxml.Node, name string) string {
	if n == nil {
		return ""
	}
	v, ok := n.Attr(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// titleCase 每次调用新建 Caser，Caser 不能跨 goroutine 共享
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// ScrubName 姓名清洗：截断到35个字符，去掉标点，首字母大写
func ScrubName(name string) string {
	name = truncate(name, maxNameLength)
	name = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return titleCase(name)
}

// ScrubString 将制表符和换行等空白折叠为单个空格
func ScrubString(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// nullable 空串映射为nil
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
