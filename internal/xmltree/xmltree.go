// Package xmltree 把 UPnP 描述文档解码成一棵小的类型化元素树
//
// 元素名是去掉命名空间前缀后的本地名，所有按名查找都不区分大小写。
// 厂商文档里"一个元素还是一组元素"的差异统一由 All 处理。
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrEmptyDocument 文档中没有任何元素
var ErrEmptyDocument = errors.New("xmltree: empty document")

// Element XML 元素
type Element struct {
	// Name 本地名（无前缀）
	Name string

	// Space 命名空间 URI（未声明的前缀原样保留）
	Space string

	Attrs []xml.Attr

	// Text 直接文本内容（不含子元素的文本）
	Text string

	Children []*Element
}

// Parse 解码 r 中的第一个根元素
//
// 声明了非 UTF-8 编码（如 ISO-8859-1）的文档会被转码。
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	var (
		root  *Element
		stack []*Element
		text  []*strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: decode: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:  t.Name.Local,
				Space: t.Name.Space,
				Attrs: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})

		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack[len(stack)-1].Text = text[len(text)-1].String()
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
			if len(stack) == 0 && root != nil {
				return root, nil
			}
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	// 未闭合的文档：保留已解析的部分
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].Text = text[i].String()
	}
	return root, nil
}

// ParseBytes 解码字节切片
func ParseBytes(data []byte) (*Element, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	return Parse(bytes.NewReader(data))
}

// Is 判断元素本地名是否为 name（不区分大小写）
func (e *Element) Is(name string) bool {
	return e != nil && strings.EqualFold(e.Name, name)
}

// Child 返回第一个名为 name 的子元素，不存在时返回 nil
func (e *Element) Child(name string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Is(name) {
			return c
		}
	}
	return nil
}

// All 返回所有名为 name 的子元素
//
// 只有一个元素和有多个元素的情况都得到切片，没有时返回空切片。
func (e *Element) All(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Is(name) {
			out = append(out, c)
		}
	}
	return out
}

// Find 沿路径逐级查找子元素
func (e *Element) Find(path ...string) *Element {
	cur := e
	for _, name := range path {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Descendant 深度优先查找第一个名为 name 的后代元素（包含自身）
func (e *Element) Descendant(name string) *Element {
	if e == nil {
		return nil
	}
	if e.Is(name) {
		return e
	}
	for _, c := range e.Children {
		if d := c.Descendant(name); d != nil {
			return d
		}
	}
	return nil
}

// ChildText 返回子元素去掉首尾空白的文本，不存在时返回空串
func (e *Element) ChildText(name string) string {
	c := e.Child(name)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text)
}

// TrimmedText 返回去掉首尾空白的文本
func (e *Element) TrimmedText() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text)
}

// Attr 返回属性值（按本地名，不区分大小写）
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

// IsEmpty 没有子元素且文本为空白
//
// 有的厂商用空字符串代替省略 actionList 元素。
func (e *Element) IsEmpty() bool {
	return e == nil || (len(e.Children) == 0 && strings.TrimSpace(e.Text) == "")
}
