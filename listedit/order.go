// Package listedit implements optimistic editing of ordered collections:
// reorders apply locally at once and are persisted afterwards with one point
// update per item.
package listedit

import (
	"fmt"
	"slices"

	scalexone "github.com/creastat/scalexone"
)

// Renumber returns a copy of items with Order set to each item's position.
func Renumber(items []scalexone.OrderedItem) []scalexone.OrderedItem {
	out := slices.Clone(items)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// Reorder moves the item at src to dst and densely renumbers the result.
// items is not modified.
func Reorder(items []scalexone.OrderedItem, src, dst int) ([]scalexone.OrderedItem, error) {
	if src < 0 || src >= len(items) || dst < 0 || dst >= len(items) {
		return nil, fmt.Errorf("reorder %d -> %d in %d items: %w", src, dst, len(items), scalexone.ErrIndexOutOfRange)
	}

	out := slices.Clone(items)
	moved := out[src]
	out = slices.Delete(out, src, src+1)
	out = slices.Insert(out, dst, moved)
	return Renumber(out), nil
}

// Move takes the item at srcIdx out of src and inserts it into dst at
// dstIdx. Both collections are densely renumbered. If dst already holds an
// item with the same key the move is rejected with ErrDuplicateKey and both
// inputs are returned unchanged.
func Move(src, dst []scalexone.OrderedItem, srcIdx, dstIdx int) ([]scalexone.OrderedItem, []scalexone.OrderedItem, error) {
	if srcIdx < 0 || srcIdx >= len(src) || dstIdx < 0 || dstIdx > len(dst) {
		return src, dst, fmt.Errorf("move %d -> %d: %w", srcIdx, dstIdx, scalexone.ErrIndexOutOfRange)
	}

	item := src[srcIdx]
	if ContainsKey(dst, item.Key) {
		return src, dst, fmt.Errorf("move %q: %w", item.Key, scalexone.ErrDuplicateKey)
	}

	newSrc := slices.Delete(slices.Clone(src), srcIdx, srcIdx+1)
	newDst := slices.Insert(slices.Clone(dst), dstIdx, item)
	return Renumber(newSrc), Renumber(newDst), nil
}

// ContainsKey reports whether any item carries key.
func ContainsKey(items []scalexone.OrderedItem, key string) bool {
	return slices.ContainsFunc(items, func(it scalexone.OrderedItem) bool {
		return it.Key == key
	})
}
