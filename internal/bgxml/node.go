// Package bgxml 将Burning Glass返回的XML解析为与具体解析库无关的节点树
package bgxml

import (
	"errors"
	"strings"
)

var (
	// ErrUndecodable 原始字节无法解码为文本，属于需要上抛给调用方的硬错误
	ErrUndecodable = errors.New("BG响应无法解码为文本")
	// ErrEmptyDocument 输入为空
	ErrEmptyDocument = errors.New("BG响应为空")
)

// Node 树节点的最小访问接口。
// 所有查找都按文档顺序在后代节点中进行，标签名和属性名均为小写。
type Node interface {
	// Tag 返回节点标签名（小写）
	Tag() string
	// FindFirst 返回第一个匹配标签的后代节点，找不到时返回nil
	FindFirst(tag string) Node
	// FindAll 按文档顺序返回所有匹配标签的后代节点
	FindAll(tag string) []Node
	// Attr 返回属性值
	Attr(name string) (string, bool)
	// Text 返回节点下所有文本内容的拼接
	Text() string
	// Parent 返回父节点，根节点返回nil
	Parent() Node
}

// HasAncestor 判断节点的祖先中是否存在指定标签
func HasAncestor(n Node, tag string) bool {
	if n == nil {
		return false
	}
	tag = strings.ToLower(tag)
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Tag() == tag {
			return true
		}
	}
	return false
}

// FindAllWithin 在多个父节点下按顺序收集指定标签的节点
func FindAllWithin(parents []Node, tag string) []Node {
	var out []Node
	for _, p := range parents {
		if p == nil {
			continue
		}
		out = append(out, p.FindAll(tag)...)
	}
	return out
}
