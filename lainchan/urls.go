package lainchan

import (
	"fmt"
	"strings"
)

// DefaultAPIBase is the root of the imageboard JSON API
const DefaultAPIBase = "https://lainchan.org"

// CatalogURL returns the resource URL of a board's thread listing
func CatalogURL(apiBase, board string) string {
	return fmt.Sprintf("%s/%s/catalog.json", strings.TrimRight(apiBase, "/"), board)
}

// ThreadURL returns the resource URL of a single thread's posts
func ThreadURL(apiBase, board string, no int64) string {
	return fmt.Sprintf("%s/%s/res/%d.json", strings.TrimRight(apiBase, "/"), board, no)
}

// ImageURL returns the URL of a post's attachment, empty when it has none
func ImageURL(apiBase, board string, p *Post) string {
	if !p.HasImage() {
		return ""
	}
	return fmt.Sprintf("%s/%s/src/%s%s", strings.TrimRight(apiBase, "/"), board, p.Tim, p.Ext)
}
