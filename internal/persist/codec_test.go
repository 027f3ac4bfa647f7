package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeList(t *testing.T) {
	assert.Equal(t, "-", EncodeList(nil))
	assert.Equal(t, "-", EncodeList([]string{}))
	assert.Equal(t, "a", EncodeList([]string{"a"}))
	assert.Equal(t, "a#-_-#b#-_-#", EncodeList([]string{"a", "b", ""}))

	assert.Equal(t, []string{}, DecodeList("-"))
	assert.Equal(t, []string{""}, DecodeList(""))
	assert.Equal(t, []string{"a", "b", ""}, DecodeList("a#-_-#b#-_-#"))

	// One empty element is not zero elements
	assert.Equal(t, "", EncodeList([]string{""}))
	assert.Equal(t, []string{""}, DecodeList(EncodeList([]string{""})))
	assert.Equal(t, []string{}, DecodeList(EncodeList(nil)))

	// A lone placeholder element collapses to the empty list
	assert.Equal(t, []string{}, DecodeList(EncodeList([]string{"-"})))
}

func TestEncodeInts(t *testing.T) {
	assert.Equal(t, "-", EncodeInts(nil))
	assert.Equal(t, "0#-_-#2#-_-#-1", EncodeInts([]int{0, 2, -1}))
	assert.Equal(t, []int{0, 2, -1}, DecodeInts("0#-_-#2#-_-#-1"))
	assert.Equal(t, []int{3}, DecodeInts("x#-_-#3"))
}

func TestNameSet(t *testing.T) {
	set := NewNameSet("open")
	assert.Equal(t, "#open#", set)
	assert.True(t, NameSetContains(set, "open"))
	assert.False(t, NameSetContains(set, "ope"))

	assert.False(t, NameSetAdd(&set, "open"))
	assert.True(t, NameSetAdd(&set, "read"))
	assert.Equal(t, "#open#read#", set)
	assert.Equal(t, []string{"open", "read"}, NameSetMembers(set))

	var empty string
	assert.True(t, NameSetAdd(&empty, "x"))
	assert.Equal(t, "#x#", empty)
	assert.Nil(t, NameSetMembers(""))
}
