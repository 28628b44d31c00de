// Package testhelpers queries rendered HTML the way a user finds things on a
// page: by visible text, by label, by role and by test id.
package testhelpers

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page. Queries only look inside <body>.
type Document struct {
	root *html.Node
	body *html.Node
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := &Document{root: root}
	doc.body = findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if doc.body == nil {
		doc.body = root
	}
	return doc, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Matcher decides whether an element's normalized text is a hit.
type Matcher func(text string) bool

// Exact matches text equal to s after whitespace normalization.
func Exact(s string) Matcher {
	want := normalize(s)
	return func(text string) bool { return text == want }
}

// Pattern matches text against a regular expression, e.g. `(?i)contact form`.
func Pattern(expr string) Matcher {
	re := regexp.MustCompile(expr)
	return func(text string) bool { return re.MatchString(text) }
}

// QueryAllByText returns elements whose own text (text node children only) matches m.
// <script> and <style> are skipped.
func (d *Document) QueryAllByText(m Matcher) []*html.Node {
	return findAll(d.body, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return false
		}
		own := ownText(n)
		return own != "" && m(own)
	})
}

// QueryByText returns the single element matching m, nil if none, and an error if several match.
func (d *Document) QueryByText(m Matcher) (*html.Node, error) {
	return single(d.QueryAllByText(m), "text")
}

// QueryByLabelText returns the form control associated with the label whose
// text matches m, through the label's for attribute or by nesting.
func (d *Document) QueryByLabelText(m Matcher) (*html.Node, error) {
	labels := findAll(d.body, func(n *html.Node) bool {
		return n.DataAtom == atom.Label && m(TextContent(n))
	})
	var controls []*html.Node
	for _, label := range labels {
		if id := Attr(label, "for"); id != "" {
			if c := d.ByID(id); c != nil {
				controls = append(controls, c)
			}
			continue
		}
		if c := findFirst(label, isFormControl); c != nil {
			controls = append(controls, c)
		}
	}
	return single(controls, "label")
}

// QueryAllByRole supports the roles the contact page uses: button, textbox, heading.
func (d *Document) QueryAllByRole(role string) []*html.Node {
	return findAll(d.body, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if explicit := Attr(n, "role"); explicit != "" {
			return explicit == role
		}
		switch role {
		case "button":
			if n.DataAtom == atom.Button {
				return true
			}
			if n.DataAtom == atom.Input {
				switch strings.ToLower(Attr(n, "type")) {
				case "submit", "button", "reset":
					return true
				}
			}
		case "textbox":
			if n.DataAtom == atom.Textarea {
				return true
			}
			if n.DataAtom == atom.Input {
				switch strings.ToLower(Attr(n, "type")) {
				case "", "text", "email":
					return true
				}
			}
		case "heading":
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				return true
			}
		}
		return false
	})
}

// QueryByRole returns the single element with role, nil if none, and an error if several.
func (d *Document) QueryByRole(role string) (*html.Node, error) {
	return single(d.QueryAllByRole(role), "role "+role)
}

// QueryAllByTestID returns elements whose data-testid equals id.
func (d *Document) QueryAllByTestID(id string) []*html.Node {
	return findAll(d.body, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "data-testid") == id
	})
}

// QueryByTestID returns the single element with data-testid id, nil if none.
func (d *Document) QueryByTestID(id string) (*html.Node, error) {
	return single(d.QueryAllByTestID(id), "test id "+id)
}

// ByID returns the element with the given id attribute, anywhere in the document.
func (d *Document) ByID(id string) *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "id") == id
	})
}

// Attr returns attribute key of n, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// TextContent returns the normalized text of n and all its descendants.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return normalize(b.String())
}

// Value returns the current value of an input or textarea.
func Value(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.DataAtom == atom.Textarea {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return b.String()
	}
	return Attr(n, "value")
}

func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return normalize(b.String())
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isFormControl(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input, atom.Textarea, atom.Select:
		return true
	}
	return false
}

func single(nodes []*html.Node, what string) (*html.Node, error) {
	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return nodes[0], nil
	default:
		return nil, fmt.Errorf("found %d elements by %s, want at most one", len(nodes), what)
	}
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hit := findFirst(c, pred); hit != nil {
			return hit
		}
	}
	return nil
}

func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if pred(c) {
			out = append(out, c)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}
