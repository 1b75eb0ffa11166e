package bgxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// documentTag 合成根节点的标签名
const documentTag = "#document"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Element 严格XML后端的节点实现
type Element struct {
	name    string
	attrs   map[string]string
	parent  *Element
	content []contentItem // 按文档顺序保存文本与子元素
}

type contentItem struct {
	text string
	elem *Element
}

var _ Node = (*Element)(nil)

// Parse 使用 encoding/xml 以非严格模式解析BG XML。
// 声明了非UTF-8编码的文档通过 charset 包转码；无法解码的字节返回 ErrUndecodable。
func Parse(data []byte) (Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	root := &Element{name: documentTag}
	cur := root
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if !utf8.Valid(data) {
				return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
			}
			return nil, fmt.Errorf("解析BG XML失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child := newElement(t, cur)
			cur.content = append(cur.content, contentItem{elem: child})
			cur = child
		case xml.EndElement:
			// 非严格模式下可能出现错位的结束标签，向上找到同名节点再出栈
			name := strings.ToLower(t.Name.Local)
			for n := cur; n != nil && n != root; n = n.parent {
				if n.name == name {
					cur = n.parent
					break
				}
			}
		case xml.CharData:
			cur.content = append(cur.content, contentItem{text: string(t)})
		}
	}

	return root, nil
}

func newElement(start xml.StartElement, parent *Element) *Element {
	e := &Element{
		name:   strings.ToLower(start.Name.Local),
		parent: parent,
	}
	if len(start.Attr) > 0 {
		e.attrs = make(map[string]string, len(start.Attr))
		for _, a := range start.Attr {
			e.attrs[strings.ToLower(a.Name.Local)] = a.Value
		}
	}
	return e
}

// Tag 实现 Node
func (e *Element) Tag() string { return e.name }

// FindFirst 实现 Node
func (e *Element) FindFirst(tag string) Node {
	if found := e.findFirst(strings.ToLower(tag)); found != nil {
		return found
	}
	return nil
}

func (e *Element) findFirst(tag string) *Element {
	for _, c := range e.content {
		if c.elem == nil {
			continue
		}
		if c.elem.name == tag {
			return c.elem
		}
		if found := c.elem.findFirst(tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll 实现 Node
func (e *Element) FindAll(tag string) []Node {
	var out []Node
	e.collect(strings.ToLower(tag), &out)
	return out
}

func (e *Element) collect(tag string, out *[]Node) {
	for _, c := range e.content {
		if c.elem == nil {
			continue
		}
		if c.elem.name == tag {
			*out = append(*out, c.elem)
		}
		c.elem.collect(tag, out)
	}
}

// Attr 实现 Node
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[strings.ToLower(name)]
	return v, ok
}

// Text 实现 Node
func (e *Element) Text() string {
	var sb strings.Builder
	e.writeText(&sb)
	return sb.String()
}

func (e *Element) writeText(sb *strings.Builder) {
	for _, c := range e.content {
		if c.elem != nil {
			c.elem.writeText(sb)
			continue
		}
		sb.WriteString(c.text)
	}
}

// Parent 实现 Node
func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}
