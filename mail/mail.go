// Package mail delivers outbound messages. Every message is authored as HTML
// and carries a derived plain-text alternative.
package mail

import (
	"context"
	"regexp"
	"strings"
)

// Message is a single outbound mail.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var (
	paragraphRe = regexp.MustCompile(`<p>`)
	breakRe     = regexp.MustCompile(`<br\s*/?>`)
	tagRe       = regexp.MustCompile(`</?[^>]*>`)
)

// PlainText turns the HTML body into text: paragraphs become blank lines,
// line breaks become newlines and all other tags are dropped.
func PlainText(html string) string {
	s := paragraphRe.ReplaceAllString(html, "\n\n")
	s = breakRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
