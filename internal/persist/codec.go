package persist

import (
	"strconv"
	"strings"

	"github.com/huangsam/ehminer/schema"
)

// EncodeList joins items with the list delimiter. An empty list encodes to the placeholder
// so that it cannot be confused with a list holding one empty string.
func EncodeList(items []string) string {
	if len(items) == 0 {
		return schema.EmptyListPlaceholder
	}
	return strings.Join(items, schema.ListDelimiter)
}

// DecodeList reverses EncodeList. Only the placeholder decodes to an empty list; "" is a
// list holding one empty element. A one-element list holding exactly the placeholder does
// not survive the round trip.
func DecodeList(s string) []string {
	if s == schema.EmptyListPlaceholder {
		return []string{}
	}
	return strings.Split(s, schema.ListDelimiter)
}

// EncodeInts encodes a list of integers the same way as EncodeList.
func EncodeInts(items []int) string {
	strs := make([]string, len(items))
	for i, n := range items {
		strs[i] = strconv.Itoa(n)
	}
	return EncodeList(strs)
}

// DecodeInts reverses EncodeInts, skipping elements that are not integers.
func DecodeInts(s string) []int {
	parts := DecodeList(s)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// NewNameSet returns a stored set holding only name, as "#name#".
func NewNameSet(name string) string {
	return schema.SetDelimiter + name + schema.SetDelimiter
}

// NameSetContains reports whether name is a member of the stored set.
func NameSetContains(set, name string) bool {
	return strings.Contains(set, schema.SetDelimiter+name+schema.SetDelimiter)
}

// NameSetAdd adds name to the stored set and reports whether it was new.
func NameSetAdd(set *string, name string) bool {
	if NameSetContains(*set, name) {
		return false
	}
	if *set == "" {
		*set = NewNameSet(name)
		return true
	}
	*set += name + schema.SetDelimiter
	return true
}

// NameSetMembers lists the members of a stored set in insertion order.
func NameSetMembers(set string) []string {
	var out []string
	for part := range strings.SplitSeq(set, schema.SetDelimiter) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
