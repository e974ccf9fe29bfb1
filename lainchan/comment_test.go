package lainchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const com = `<span class="quote">&gt;implying</span><br/>` +
	`<a href="#p5" class="quotelink">&gt;&gt;5</a> and <a href="#p12" class="quotelink">&gt;&gt;12</a><br>` +
	`hello &amp; bye<script>alert(1)</script>`

func TestComment(t *testing.T) {
	assert := assert.New(t)
	p := &Post{Com: com}

	text := p.Comment()
	assert.Equal(">implying\n>>5 and >>12\nhello & bye", text)
	assert.Equal("No comment", (&Post{}).Comment())
}

func TestSanitizedCom(t *testing.T) {
	p := &Post{Com: com}

	s := p.SanitizedCom()
	assert.NotContains(t, s, "<script")
	assert.Contains(t, s, "hello &amp; bye")
}

func TestQuotes(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]int64{5, 12}, (&Post{Com: com}).Quotes())
	assert.Nil((&Post{Com: "nothing quoted"}).Quotes())
}

func TestGreentext(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{">implying"}, (&Post{Com: com}).Greentext())
	assert.Nil((&Post{Com: "plain"}).Greentext())
}
