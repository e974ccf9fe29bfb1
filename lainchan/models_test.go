package lainchan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
	{"page":0,"threads":[
		{"no":1,"sub":"Welcome","com":"first","tim":"1700000000001","ext":".png","replies":12,"images":3},
		{"no":2,"com":"no subject here","replies":0}
	]},
	{"page":1,"threads":[{"no":3,"sub":"Later","replies":1}]}
]`

func TestCatalogThreads(t *testing.T) {
	assert := assert.New(t)
	var c Catalog
	require.NoError(t, json.Unmarshal([]byte(catalogJSON), &c))

	threads := c.Threads()
	assert.Len(threads, 3)
	assert.Equal(int64(1), threads[0].No)
	assert.Equal(12, threads[0].Replies)
	assert.Equal("Welcome", threads[0].Subject())
	assert.Equal("No Subject", threads[1].Subject())
	assert.True(threads[0].HasImage())
	assert.False(threads[1].HasImage())
	assert.Equal(int64(3), threads[2].No)
}

func TestThreadTitle(t *testing.T) {
	assert := assert.New(t)

	th := &Thread{Posts: []Post{{No: 10, Sub: "Lain"}, {No: 11}}}
	assert.Equal("Lain", th.Title(10))
	assert.Equal(int64(10), th.OP().No)

	th = &Thread{Posts: []Post{{No: 10}}}
	assert.Equal("Thread #10", th.Title(10))

	th = &Thread{}
	assert.Nil(th.OP())
	assert.Equal("Thread #99", th.Title(99))
}

func TestTruncate(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("short", Truncate("short", 100))
	assert.Equal("abc...", Truncate("abcdef", 3))
	assert.Equal("abc", Truncate("abc", 3))
	assert.Equal("ﾚｲﾝ...", Truncate("ﾚｲﾝｲﾜｸﾗ", 3))
}

func TestURLs(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("https://lainchan.org/λ/catalog.json", CatalogURL(DefaultAPIBase, "λ"))
	assert.Equal("https://lainchan.org/g/catalog.json", CatalogURL(DefaultAPIBase+"/", "g"))
	assert.Equal("https://lainchan.org/sec/res/1234.json", ThreadURL(DefaultAPIBase, "sec", 1234))

	p := &Post{Tim: "1700000000001", Ext: ".jpg"}
	assert.Equal("https://lainchan.org/g/src/1700000000001.jpg", ImageURL(DefaultAPIBase, "g", p))
	assert.Equal("", ImageURL(DefaultAPIBase, "g", &Post{}))
}
