// Package parser provides HTML parsing and content extraction for the
// retrieval engine. It wraps the parsed tree in a small typed node
// abstraction used for title and link extraction.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML document.
type Document struct {
	root *html.Node
}

// Node is a single element in the document tree.
type Node struct {
	n *html.Node
}

// Parse parses HTML content into a Document.
func Parse(content []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// FindAll returns every element with the given tag name in document order.
func (d *Document) FindAll(tag string) []*Node {
	var nodes []*Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			nodes = append(nodes, &Node{n: n})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return nodes
}

// First returns the first element with the given tag name, or nil.
func (d *Document) First(tag string) *Node {
	var found *Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			found = &Node{n: n}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return found
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(name string) (string, bool) {
	for _, attr := range n.n.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// Text returns the concatenated text content of the node and its children.
func (n *Node) Text() string {
	var parts []string
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.n)
	return strings.Join(parts, " ")
}

// UntitledPage is the title reported when a page has no usable title element.
const UntitledPage = "Untitled"

// Title extracts the page title, falling back to the first heading
// and finally to a fixed placeholder.
func (d *Document) Title() string {
	if t := d.First("title"); t != nil {
		if text := t.Text(); text != "" {
			return text
		}
	}
	if h := d.First("h1"); h != nil {
		if text := h.Text(); text != "" {
			return text
		}
	}
	return UntitledPage
}

// skippedHrefPrefixes are anchor targets that never lead to fetchable pages.
var skippedHrefPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// ExtractLinks returns all anchor targets resolved against baseURL.
// Fragment-only, javascript:, mailto: and tel: targets are skipped,
// as is anything that does not resolve to an http(s) URL. Duplicates
// are removed while preserving document order.
func (d *Document) ExtractLinks(baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string

	for _, a := range d.FindAll("a") {
		href, ok := a.Attribute("href")
		if !ok {
			continue
		}
		href = strings.TrimSpace(href)
		if href == "" || hasSkippedPrefix(href) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}

		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}

	return links
}

func hasSkippedPrefix(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range skippedHrefPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
