// Package langitem keeps the table of runtime support items the code
// generator calls into: panic entry points, drop glue, allocator hooks.
package langitem

import "fmt"

// Item identifies a language-level support item.
type Item uint8

const (
	ItemInvalid Item = iota
	ItemPanic
	ItemPanicBoundsCheck
	ItemPanicShiftOverflow
	ItemDropInPlace
	ItemExchangeMalloc
	ItemBoxFree
	ItemEhPersonality
	ItemOOM
	ItemStart
	ItemSized
	ItemCopy
	ItemFreeze
	ItemDrop

	itemCount
)

var itemNames = [itemCount]string{
	ItemInvalid:            "",
	ItemPanic:              "panic",
	ItemPanicBoundsCheck:   "panic_bounds_check",
	ItemPanicShiftOverflow: "panic_shift_overflow",
	ItemDropInPlace:        "drop_in_place",
	ItemExchangeMalloc:     "exchange_malloc",
	ItemBoxFree:            "box_free",
	ItemEhPersonality:      "eh_personality",
	ItemOOM:                "oom",
	ItemStart:              "start",
	ItemSized:              "sized",
	ItemCopy:               "copy",
	ItemFreeze:             "freeze",
	ItemDrop:               "drop",
}

// Name returns the canonical name used in lang-item tables and diagnostics.
func (it Item) Name() string {
	if it < itemCount {
		return itemNames[it]
	}
	return ""
}

func (it Item) String() string {
	if n := it.Name(); n != "" {
		return n
	}
	return fmt.Sprintf("Item(%d)", it)
}

// ItemFromName maps a canonical name back to its item.
func ItemFromName(name string) (Item, bool) {
	for it := ItemPanic; it < itemCount; it++ {
		if itemNames[it] == name {
			return it, true
		}
	}
	return ItemInvalid, false
}

// All lists every known item in declaration order.
func All() []Item {
	out := make([]Item, 0, itemCount-1)
	for it := ItemPanic; it < itemCount; it++ {
		out = append(out, it)
	}
	return out
}
