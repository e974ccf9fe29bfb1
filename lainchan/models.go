package lainchan

import (
	"fmt"
)

// Post is a single post as returned by the JSON API.
// Thread listings in a catalog use the same shape for their OP.
type Post struct {
	No      int64  `json:"no"`
	Resto   int64  `json:"resto,omitempty"`
	Sub     string `json:"sub,omitempty"`
	Com     string `json:"com,omitempty"`
	Name    string `json:"name,omitempty"`
	Time    int64  `json:"time,omitempty"`
	Tim     string `json:"tim,omitempty"`
	Ext     string `json:"ext,omitempty"`
	Replies int    `json:"replies,omitempty"`
	Images  int    `json:"images,omitempty"`
}

// CatalogPage is one page of a board catalog
type CatalogPage struct {
	Page    int    `json:"page"`
	Threads []Post `json:"threads"`
}

// Catalog is the full thread listing of a board
type Catalog []CatalogPage

// Threads flattens the catalog pages into a single listing
func (c Catalog) Threads() []Post {
	var threads []Post
	for _, p := range c {
		threads = append(threads, p.Threads...)
	}
	return threads
}

// Thread holds the posts of a thread, OP first
type Thread struct {
	Posts []Post `json:"posts"`
}

// OP returns the opening post, nil for a thread without posts
func (t *Thread) OP() *Post {
	if len(t.Posts) == 0 {
		return nil
	}
	return &t.Posts[0]
}

// Title returns the subject of the opening post or a title derived from no
func (t *Thread) Title(no int64) string {
	if op := t.OP(); op != nil && op.Sub != "" {
		return op.Sub
	}
	return fmt.Sprintf("Thread #%d", no)
}

// Subject returns the post subject or a placeholder
func (p *Post) Subject() string {
	if p.Sub == "" {
		return "No Subject"
	}
	return p.Sub
}

// HasImage reports whether the post carries an attachment
func (p *Post) HasImage() bool {
	return p.Tim != ""
}

// Truncate shortens s to n characters, appending an ellipsis when cut
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
