package bgxml

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// soupNode 基于goquery的宽松后端，用于BG偶尔返回的不规范标记。
// HTML解析器不认识自闭合的未知标签，<start/> 之后的兄弟节点会被挂到它下面，
// 由于所有查找都在后代中进行，字段仍然可以取到。
type soupNode struct {
	sel *goquery.Selection
}

var _ Node = (*soupNode)(nil)

// ParseHTML 使用goquery的HTML解析器构建节点树
func ParseHTML(data []byte) (Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("宽松模式解析BG响应失败: %w", err)
	}
	return &soupNode{sel: doc.Selection}, nil
}

// ParseLenient 先尝试严格XML解析，失败后回退到HTML解析。
// 无法解码的输入不会回退，直接返回 ErrUndecodable。
func ParseLenient(data []byte) (Node, error) {
	node, err := Parse(data)
	if err == nil {
		return node, nil
	}
	if errors.Is(err, ErrUndecodable) || errors.Is(err, ErrEmptyDocument) {
		return nil, err
	}
	return ParseHTML(data)
}

func (s *soupNode) Tag() string {
	return strings.ToLower(goquery.NodeName(s.sel))
}

func (s *soupNode) FindFirst(tag string) Node {
	found := s.sel.Find(strings.ToLower(tag)).First()
	if found.Length() == 0 {
		return nil
	}
	return &soupNode{sel: found}
}

func (s *soupNode) FindAll(tag string) []Node {
	var out []Node
	s.sel.Find(strings.ToLower(tag)).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &soupNode{sel: sel})
	})
	return out
}

func (s *soupNode) Attr(name string) (string, bool) {
	return s.sel.Attr(strings.ToLower(name))
}

func (s *soupNode) Text() string {
	return s.sel.Text()
}

func (s *soupNode) Parent() Node {
	p := s.sel.Parent()
	if p.Length() == 0 {
		return nil
	}
	return &soupNode{sel: p}
}
