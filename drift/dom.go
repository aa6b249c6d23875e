package drift

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// shingleSize is the number of consecutive tag names per feature.
const shingleSize = 3

// FingerprintDOM fingerprints the sequence of opening tag names in an HTML
// document. Text, attributes and values are ignored, so a price change
// leaves the fingerprint untouched while a redesigned table does not.
func FingerprintDOM(body []byte) uint64 {
	tags := openTags(body)
	if len(tags) == 0 {
		return 0
	}
	if len(tags) < shingleSize {
		return Fingerprint(strings.Join(tags, " "))
	}

	shingles := make([]string, 0, len(tags)-shingleSize+1)
	for i := 0; i+shingleSize <= len(tags); i++ {
		shingles = append(shingles, strings.Join(tags[i:i+shingleSize], "_"))
	}
	return Fingerprint(strings.Join(shingles, " "))
}

// openTags walks the document with the tokenizer and collects start tag names.
func openTags(body []byte) []string {
	z := html.NewTokenizer(bytes.NewReader(body))
	var tags []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tags = append(tags, string(name))
		}
	}
}
