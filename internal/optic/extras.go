package optic

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/types"
)

const linkedInProfilePrefix = "https://www.linkedin.com/in/"

var linkedInPattern = regexp.MustCompile(`(?i)linkedin\.com/in/([A-Za-z0-9_]+)`)

// ParseReferences 拼接所有 references 节点的文本
func ParseReferences(doc bgxml.Node) *string {
	nodes := doc.FindAll("references")
	if len(nodes) == 0 {
		return nil
	}
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, strings.TrimSpace(n.Text()))
	}
	return nullable(strings.TrimSpace(strings.Join(parts, " ")))
}

// ParseSummary 只取第一个 summary
func ParseSummary(doc bgxml.Node) string {
	n := doc.FindFirst("summary")
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text())
}

// ExtractLinkedInURLs 从纯文本中提取LinkedIn个人主页，按slug去重（区分大小写）
func ExtractLinkedInURLs(text string) []types.SocialNetwork {
	networks := make([]types.SocialNetwork, 0)
	seen := make(map[string]struct{})
	for _, m := range linkedInPattern.FindAllStringSubmatch(text, -1) {
		slug := m[1]
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		networks = append(networks, types.SocialNetwork{
			Name:       types.SocialNetworkLinkedIn,
			ProfileURL: linkedInProfilePrefix + slug,
		})
	}
	return networks
}
