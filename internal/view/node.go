package view

import (
	"html"
	"strings"
)

// Attr is a name/value pair, used for both attributes and style declarations.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the render tree. A Node with an empty Tag is a text
// node and only Text is used.
type Node struct {
	Tag      string
	Attrs    []Attr
	Style    []Attr
	Children []Node
	Text     string
}

// El builds an element node.
func El(tag string, children ...Node) Node {
	return Node{Tag: tag, Children: children}
}

// Text builds a text node.
func Text(s string) Node {
	return Node{Text: s}
}

// With returns a copy of n with the attribute appended.
func (n Node) With(name, value string) Node {
	n.Attrs = append(append([]Attr(nil), n.Attrs...), Attr{Name: name, Value: value})
	return n
}

// WithStyle returns a copy of n with the style declaration appended.
func (n Node) WithStyle(name, value string) Node {
	n.Style = append(append([]Attr(nil), n.Style...), Attr{Name: name, Value: value})
	return n
}

// Find returns every node in the tree with the given tag, in document order.
func (n Node) Find(tag string) []Node {
	var out []Node
	if n.Tag == tag {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, c.Find(tag)...)
	}
	return out
}

// Attr returns the value of the named attribute.
func (n Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// StyleValue returns the value of the named style declaration.
func (n Node) StyleValue(name string) (string, bool) {
	for _, a := range n.Style {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HTML serializes the tree as markup. Attribute and style order is preserved,
// so the output is stable for a given tree.
func (n Node) HTML() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n Node) write(b *strings.Builder) {
	if n.Tag == "" {
		b.WriteString(html.EscapeString(n.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		writeAttr(b, a.Name, a.Value)
	}
	if len(n.Style) > 0 {
		decls := make([]string, 0, len(n.Style))
		for _, s := range n.Style {
			decls = append(decls, s.Name+": "+s.Value)
		}
		writeAttr(b, "style", strings.Join(decls, "; "))
	}
	b.WriteByte('>')

	if n.Text != "" {
		b.WriteString(html.EscapeString(n.Text))
	}
	for _, c := range n.Children {
		c.write(b)
	}

	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('"')
}
