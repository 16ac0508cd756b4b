package service

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes markup from s and returns the trimmed text content.
// Contents of script and style elements are dropped entirely.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextElement(name) {
				skip++
			} else if isBlockElement(name) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextElement(name) && skip > 0 {
				skip--
			} else if isBlockElement(name) {
				b.WriteByte(' ')
			}
		}
	}
}

// CleanName turns a client supplied file or object name into a storage key:
// markup and path components are removed and surrounding space trimmed.
func CleanName(name string) string {
	name = StripTags(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(filepath.Base(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func isRawTextElement(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func isBlockElement(name []byte) bool {
	switch string(name) {
	case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "title":
		return true
	}
	return false
}
