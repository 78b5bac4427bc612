package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-htmlatex/internal/latex"
)

// Node is one equation element found in a document. Fields are read-only.
type Node struct {
	Kind    latex.Kind
	Variant string
	// Content is the element's text with entities decoded, trimmed.
	Content string
	// Serialized is the element's markup as rendered by the parser, trimmed.
	// It is what the cache key is derived from.
	Serialized string

	elem *html.Node
}

// Document is a parsed HTML document or fragment.
type Document struct {
	root     *html.Node
	fragment bool
}

// Parse parses content, detecting whether it is a full document or a fragment.
func Parse(content string) (*Document, error) {
	root, fragment, err := parseHTML(content)
	if err != nil {
		return nil, err
	}
	return &Document{root: root, fragment: fragment}, nil
}

// Equations returns every equation element in document order. Equations
// nested inside another equation are part of the outer one's content.
func (d *Document) Equations() ([]*Node, error) {
	var (
		nodes []*Node
		err   error
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if err != nil {
			return
		}
		if kind, variant, ok := classify(n); ok {
			var node *Node
			if node, err = newNode(n, kind, variant); err == nil {
				nodes = append(nodes, node)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return nodes, err
}

// Replace swaps node's element for <img src="src" />. Replacing a node twice
// is a no-op.
func (d *Document) Replace(node *Node, src string) {
	el := node.elem
	if el == nil || el.Parent == nil {
		return
	}
	img := &html.Node{Type: html.RawNode, Data: ImageTag(src)}
	el.Parent.InsertBefore(img, el)
	el.Parent.RemoveChild(el)
	node.elem = nil
}

// Render serializes the document back to HTML.
func (d *Document) Render() (string, error) {
	return renderHTML(d.root, d.fragment)
}

// ImageTag returns the replacement markup for an equation image.
func ImageTag(src string) string {
	return `<img src="` + html.EscapeString(src) + `" />`
}

// classify reports whether n is an equation element and, if so, which.
// The first class token that is a recognized variant for the tag wins.
func classify(n *html.Node) (latex.Kind, string, bool) {
	if n.Type != html.ElementNode {
		return 0, "", false
	}
	var kind latex.Kind
	switch n.DataAtom {
	case atom.Span:
		kind = latex.Inline
	case atom.Div:
		kind = latex.Block
	default:
		return 0, "", false
	}
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		for _, token := range strings.Fields(a.Val) {
			if latex.Recognized(kind, token) {
				return kind, token, true
			}
		}
		return 0, "", false
	}
	return 0, "", false
}

func newNode(n *html.Node, kind latex.Kind, variant string) (*Node, error) {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return nil, err
	}
	return &Node{
		Kind:       kind,
		Variant:    variant,
		Content:    strings.TrimSpace(textContent(n)),
		Serialized: strings.TrimSpace(buf.String()),
		elem:       n,
	}, nil
}

// textContent concatenates the text of every descendant of n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node and whether it was a fragment.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Body context keeps the parser from adding html/head/body.
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string. For fragments only the
// children are rendered.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
