package cml

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// isHTML catches login proxies and gateways that answer with a web page
// instead of JSON.
func isHTML(contentType string, b []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(string(b)))
	if s == "" {
		return false
	}
	return strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html") ||
		(strings.Contains(s, "<html") && strings.Contains(s, "<body"))
}

// htmlTitle returns the text of the first <title> element, or "".
func htmlTitle(b []byte) string {
	z := html.NewTokenizer(bytes.NewReader(b))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return truncate(strings.Join(strings.Fields(string(z.Text())), " "), 200)
			}
			return ""
		}
	}
}
