package lainchan

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	lineBreak    = regexp.MustCompile(`(?i)<br\s*/?>`)
	quoteLink    = regexp.MustCompile(`>>([0-9]+)`)
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// SanitizedCom returns the post body with unsafe markup removed
func (p *Post) SanitizedCom() string {
	return ugcPolicy.Sanitize(p.Com)
}

// Comment returns the post body as plain text, one line per <br>
func (p *Post) Comment() string {
	if p.Com == "" {
		return "No comment"
	}
	text := lineBreak.ReplaceAllString(p.Com, "\n")
	text = strictPolicy.Sanitize(text)
	return strings.TrimSpace(html.UnescapeString(text))
}

// Quotes returns the post numbers referenced with >>N, in order of appearance
func (p *Post) Quotes() []int64 {
	var nos []int64
	for _, m := range quoteLink.FindAllStringSubmatch(p.Comment(), -1) {
		no, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		nos = append(nos, no)
	}
	return nos
}

// Greentext returns the quoted lines of the post body: lines starting with >
// that are not >>N references.
func (p *Post) Greentext() []string {
	var lines []string
	for _, l := range strings.Split(p.Comment(), "\n") {
		if strings.HasPrefix(l, ">") && !strings.HasPrefix(l, ">>") {
			lines = append(lines, l)
		}
	}
	return lines
}
