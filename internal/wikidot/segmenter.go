// Package wikidot extracts candidate English words from Wikidot source text.
//
// The segmentation is best-effort: Wikidot markup is stripped with a few
// regex passes rather than a full grammar, so malformed markup degrades to
// fewer or noisier tokens instead of failing.
package wikidot

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// minWordLength filters single-letter fragments left over from markup.
const minWordLength = 2

var (
	cssModuleRe  = regexp.MustCompile(`(?s)\[\[module CSS\]\](.*?)\[\[/module\]\]`)
	urlRe        = regexp.MustCompile(`https?://\S+`)
	directiveRe  = regexp.MustCompile(`(?s)\[\[(.*?)\]\]`)
	formattingRe = regexp.MustCompile(`(?s)(\*\*|/{2}|__|--)(.*?)(\*\*|/{2}|__|--)`)
	inlineSpanRe = regexp.MustCompile(`(?s)(\{\{|@@)(.*?)(\}\}|@@)`)
	wordRe       = regexp.MustCompile(`[a-zA-Z][a-zA-Z'-]*`)
)

// ExtractWords returns the unique lowercase words found in Wikidot source
// content, in first-occurrence order. Words inside [[module CSS]] blocks are
// harvested separately and appended after the body words.
func ExtractWords(content string) []string {
	var cssWords []string
	for _, block := range cssModuleRe.FindAllStringSubmatch(content, -1) {
		cssWords = append(cssWords, extractCSSWords(block[1])...)
	}
	content = cssModuleRe.ReplaceAllString(content, " ")

	content = urlRe.ReplaceAllString(content, " ")
	content = directiveRe.ReplaceAllString(content, " $1 ")
	content = formattingRe.ReplaceAllString(content, " $2 ")
	content = inlineSpanRe.ReplaceAllString(content, " $2 ")

	raw := wordRe.FindAllString(content, -1)

	seen := make(map[string]struct{}, len(raw))
	words := make([]string, 0, len(raw))
	for _, w := range append(raw, cssWords...) {
		w = strings.Trim(strings.ToLower(w), "'-")
		if len(w) < minWordLength {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// ReadFragments loads the source fragments and concatenates them with
// newlines, in the order given.
func ReadFragments(paths []string) (string, error) {
	var builder strings.Builder
	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("os.ReadFile(%s) > %w", path, err)
		}
		builder.Write(contents)
		builder.WriteByte('\n')
	}
	return builder.String(), nil
}
