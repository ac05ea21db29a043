// Package menu edits the desktop and mobile menu bars stored in a tenant's
// menu configuration.
package menu

import (
	"encoding/json"
	"fmt"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/listedit"
)

// Bar names one of the menu bars.
type Bar string

const (
	Desktop Bar = "desktop"
	Mobile  Bar = "mobile"
)

// Layout is a decoded menu configuration. Keys other than the bars are kept
// verbatim so saving never drops settings this package does not know about.
type Layout struct {
	Desktop []scalexone.OrderedItem
	Mobile  []scalexone.OrderedItem

	extra map[string]json.RawMessage
}

// ParseLayout decodes a menu configuration blob. An empty blob is an empty
// layout.
func ParseLayout(blob json.RawMessage) (*Layout, error) {
	l := &Layout{extra: map[string]json.RawMessage{}}
	if len(blob) == 0 || string(blob) == "null" {
		return l, nil
	}

	if err := json.Unmarshal(blob, &l.extra); err != nil {
		return nil, fmt.Errorf("failed to decode menu layout: %w", err)
	}
	for _, bar := range []Bar{Desktop, Mobile} {
		raw, ok := l.extra[string(bar)]
		if !ok {
			continue
		}
		var items []scalexone.OrderedItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode %s bar: %w", bar, err)
		}
		*l.bar(bar) = items
		delete(l.extra, string(bar))
	}
	return l, nil
}

// Marshal encodes the layout back into a configuration blob.
func (l *Layout) Marshal() (json.RawMessage, error) {
	out := make(map[string]any, len(l.extra)+2)
	for k, v := range l.extra {
		out[k] = v
	}
	out[string(Desktop)] = nonNil(l.Desktop)
	out[string(Mobile)] = nonNil(l.Mobile)
	return json.Marshal(out)
}

// Items returns the buttons of a bar.
func (l *Layout) Items(bar Bar) ([]scalexone.OrderedItem, error) {
	p := l.bar(bar)
	if p == nil {
		return nil, fmt.Errorf("unknown menu bar %q", bar)
	}
	return *p, nil
}

// Reorder moves a button within one bar.
func (l *Layout) Reorder(bar Bar, src, dst int) error {
	p := l.bar(bar)
	if p == nil {
		return fmt.Errorf("unknown menu bar %q", bar)
	}
	next, err := listedit.Reorder(*p, src, dst)
	if err != nil {
		return err
	}
	*p = next
	return nil
}

// Move moves a button from one bar to another. A button whose key already
// exists in the destination is rejected and the layout is left unchanged.
func (l *Layout) Move(from, to Bar, srcIdx, dstIdx int) error {
	if from == to {
		return l.Reorder(from, srcIdx, dstIdx)
	}
	src, dst := l.bar(from), l.bar(to)
	if src == nil || dst == nil {
		return fmt.Errorf("unknown menu bar %q or %q", from, to)
	}
	newSrc, newDst, err := listedit.Move(*src, *dst, srcIdx, dstIdx)
	if err != nil {
		return err
	}
	*src, *dst = newSrc, newDst
	return nil
}

func (l *Layout) bar(b Bar) *[]scalexone.OrderedItem {
	switch b {
	case Desktop:
		return &l.Desktop
	case Mobile:
		return &l.Mobile
	default:
		return nil
	}
}

func nonNil(items []scalexone.OrderedItem) []scalexone.OrderedItem {
	if items == nil {
		return []scalexone.OrderedItem{}
	}
	return items
}
