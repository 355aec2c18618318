package wikidot

import (
	"regexp"
	"strings"
)

var (
	cssCommentRe  = regexp.MustCompile(`(?s)/\*(.*?)\*/`)
	cssPropertyRe = regexp.MustCompile(`([a-zA-Z-]+)\s*:\s*([^;]+);`)
	cssSelectorRe = regexp.MustCompile(`[.#]?[a-zA-Z][a-zA-Z0-9_-]*`)
	selectorPart  = regexp.MustCompile(`[a-zA-Z][a-z]*`)
)

// cssValueFunctions are CSS value keywords that are not prose.
var cssValueFunctions = map[string]struct{}{
	"rgb": {}, "rgba": {}, "hsl": {}, "hsla": {}, "url": {},
}

// extractCSSWords pulls words out of a CSS block: comment prose, property
// names and values, and class/id selectors split on dashes and camelCase.
func extractCSSWords(css string) []string {
	var words []string

	for _, comment := range cssCommentRe.FindAllStringSubmatch(css, -1) {
		words = append(words, wordRe.FindAllString(comment[1], -1)...)
	}
	css = cssCommentRe.ReplaceAllString(css, " ")

	for _, property := range cssPropertyRe.FindAllStringSubmatch(css, -1) {
		words = append(words, wordRe.FindAllString(property[1], -1)...)
		for _, value := range wordRe.FindAllString(property[2], -1) {
			if _, skip := cssValueFunctions[strings.ToLower(value)]; skip {
				continue
			}
			words = append(words, value)
		}
	}

	for _, selector := range cssSelectorRe.FindAllString(css, -1) {
		if selector[0] == '.' || selector[0] == '#' {
			selector = selector[1:]
		}
		words = append(words, selectorPart.FindAllString(selector, -1)...)
	}
	return words
}
