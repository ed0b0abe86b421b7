// Package markdown converts rendered HTML into markdown for tool output.
package markdown

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// FromHTML converts an HTML document into markdown.
func FromHTML(html string) (string, error) {
	converted, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(converted), nil
}
