package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// ReadInput resolves the text to analyze: a file wins over arguments,
// arguments over stdin. A nil stdin is skipped.
func ReadInput(args []string, file string, stdin io.Reader) (string, error) {
	var text string

	switch {
	case file != "":
		t, err := LoadFile(file)
		if err != nil {
			return "", err
		}
		text = t

	case len(args) > 0:
		text = strings.Join(args, " ")

	case stdin != nil:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	return text, nil
}

// LoadFile reads a text or HTML file; HTML is reduced to its visible text
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input file: %w", err)
	}

	if isHTML(path, data) {
		return HTMLToText(bytes.NewReader(data))
	}
	return string(data), nil
}

// HTMLToText parses HTML and returns its visible text with whitespace collapsed
func HTMLToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	return strings.Join(strings.Fields(extractVisibleText(doc)), " "), nil
}

func isHTML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	case ".txt", ".md":
		return false
	}
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// pageText reduces a fetched page to analyzable text
func pageText(page *FetchResult) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(page.ContentType)
	if mediaType == "text/plain" {
		return page.HTML, nil
	}
	return HTMLToText(strings.NewReader(page.HTML))
}

// extractVisibleText extracts text nodes from HTML, skipping scripts and styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
