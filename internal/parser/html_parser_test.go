package parser

import (
	"strings"
	"testing"
)

func TestDocumentFindAll(t *testing.T) {
	doc, err := Parse([]byte(`<html><body>
		<a href="/one">One</a>
		<p>text</p>
		<a href="/two">Two</a>
	</body></html>`))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	anchors := doc.FindAll("a")
	if len(anchors) != 2 {
		t.Fatalf("Expected 2 anchors, got %d", len(anchors))
	}

	href, ok := anchors[0].Attribute("href")
	if !ok || href != "/one" {
		t.Errorf("Expected href '/one', got '%s' (ok=%v)", href, ok)
	}

	if text := anchors[1].Text(); text != "Two" {
		t.Errorf("Expected anchor text 'Two', got '%s'", text)
	}
}

func TestDocumentTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "title tag",
			html:     `<html><head><title>Page Title</title></head><body><h1>Heading</h1></body></html>`,
			expected: "Page Title",
		},
		{
			name:     "falls back to h1",
			html:     `<html><body><h1>Main Heading</h1></body></html>`,
			expected: "Main Heading",
		},
		{
			name:     "empty title falls back to h1",
			html:     `<html><head><title>  </title></head><body><h1>Heading</h1></body></html>`,
			expected: "Heading",
		},
		{
			name:     "placeholder when nothing usable",
			html:     `<html><body><p>no title here</p></body></html>`,
			expected: UntitledPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.html))
			if err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			if got := doc.Title(); got != tt.expected {
				t.Errorf("Expected title '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestExtractLinks(t *testing.T) {
	htmlContent := `<html><body>
		<a href="/relative">Relative</a>
		<a href="https://example.com/absolute">Absolute</a>
		<a href="#fragment">Fragment</a>
		<a href="javascript:void(0)">JS</a>
		<a href="mailto:a@example.com">Mail</a>
		<a href="tel:+1234567890">Tel</a>
		<a href="ftp://example.com/file">FTP</a>
		<a href="/relative">Duplicate</a>
		<a href="">Empty</a>
	</body></html>`

	doc, err := Parse([]byte(htmlContent))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	links := doc.ExtractLinks("https://example.com/page")

	expected := []string{
		"https://example.com/relative",
		"https://example.com/absolute",
	}

	if len(links) != len(expected) {
		t.Fatalf("Expected %d links, got %d: %v", len(expected), len(links), links)
	}
	for i, want := range expected {
		if links[i] != want {
			t.Errorf("Link %d: expected '%s', got '%s'", i, want, links[i])
		}
	}
}

func TestExtractLinksResolvesAgainstBase(t *testing.T) {
	doc, err := Parse([]byte(`<a href="../up">Up</a>`))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	links := doc.ExtractLinks("https://example.com/a/b/c")
	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(links))
	}
	if links[0] != "https://example.com/a/up" {
		t.Errorf("Expected resolved link 'https://example.com/a/up', got '%s'", links[0])
	}
}

func TestNodeTextJoinsChildren(t *testing.T) {
	doc, err := Parse([]byte(`<div><span>Hello</span> <b>World</b></div>`))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	div := doc.First("div")
	if div == nil {
		t.Fatal("Expected to find div")
	}
	if text := div.Text(); !strings.Contains(text, "Hello") || !strings.Contains(text, "World") {
		t.Errorf("Expected joined text containing both words, got '%s'", text)
	}
}
