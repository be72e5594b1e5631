// Package markup decides whether a model reply is an HTML document we can install.
package markup

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"voice-editor/internal/domain"
)

// Elements that never have an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// End tags that HTML parsers repair instead of rejecting: </br> becomes a
// <br>, an unmatched </p> becomes an empty paragraph, and end tags of other
// void elements are dropped.
func recoveredEndTag(tag string) bool {
	return tag == "p" || voidElements[tag]
}

// Validator is a syntactic check only. It does not sanitize scripts or styles.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate tokenizes document and reports the first structural error: no
// elements at all, an end tag with no matching open element, or a tag cut
// off by the end of input. Missing optional end tags and the end tags
// parsers recover from are accepted.
func (v *Validator) Validate(document string) error {
	if strings.TrimSpace(document) == "" {
		return &domain.InvalidDocumentError{Reason: "empty document"}
	}

	z := html.NewTokenizer(strings.NewReader(document))
	var open []string
	elements := 0
	offset := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return &domain.InvalidDocumentError{Reason: err.Error(), Offset: offset}
			}
			break
		}
		raw := len(z.Raw())

		switch tt {
		case html.StartTagToken:
			elements++
			name, _ := z.TagName()
			if tag := string(name); !voidElements[tag] {
				open = append(open, tag)
			}
		case html.SelfClosingTagToken:
			elements++
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			i := lastIndex(open, tag)
			if i < 0 && recoveredEndTag(tag) {
				break
			}
			if i < 0 {
				return &domain.InvalidDocumentError{Reason: "unexpected end tag </" + tag + ">", Offset: offset}
			}
			open = open[:i]
		}
		offset += raw
	}

	if rest := strings.TrimSpace(document[min(offset, len(document)):]); rest != "" {
		return &domain.InvalidDocumentError{Reason: "unterminated tag", Offset: offset}
	}
	if elements == 0 {
		return &domain.InvalidDocumentError{Reason: "no html elements"}
	}
	return nil
}

func lastIndex(stack []string, tag string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == tag {
			return i
		}
	}
	return -1
}
