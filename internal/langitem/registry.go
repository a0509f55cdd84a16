package langitem

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
)

// DefID refers to the definition implementing an item. 0 is "none".
type DefID uint32

// NoDefID marks the absence of a definition.
const NoDefID DefID = 0

var (
	// ErrItemsSectionMissing indicates that [items] is missing in a lang-item table.
	ErrItemsSectionMissing = errors.New("missing [items]")
	// ErrUnknownItem is wrapped by errors about names that are not lang items.
	ErrUnknownItem = errors.New("unknown lang item")
	// ErrDuplicatePath is wrapped when two items point at the same definition.
	ErrDuplicatePath = errors.New("duplicate lang item definition")
)

// MissingError is returned by Require when an item has no definition.
type MissingError struct {
	Item Item
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("requires `%s` lang_item", e.Item.Name())
}

// Registry maps items to definitions. It is filled once while loading a
// project and only read afterwards, so sharing it between units is fine.
type Registry struct {
	defs   [itemCount]DefID
	paths  []string // DefID -> symbol path
	byPath map[string]DefID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		paths:  []string{""},
		byPath: make(map[string]DefID),
	}
}

// Set binds it to the definition at path and returns its DefID.
func (r *Registry) Set(it Item, path string) (DefID, error) {
	if it == ItemInvalid || it >= itemCount {
		return NoDefID, fmt.Errorf("%w: %d", ErrUnknownItem, it)
	}
	path = norm.NFC.String(strings.TrimSpace(path))
	if path == "" {
		return NoDefID, fmt.Errorf("lang item %q: empty path", it.Name())
	}
	if prev := r.defs[it]; prev != NoDefID {
		return NoDefID, fmt.Errorf("lang item %q defined twice (%s and %s)", it.Name(), r.paths[prev], path)
	}
	if _, taken := r.byPath[path]; taken {
		return NoDefID, fmt.Errorf("%w: %s", ErrDuplicatePath, path)
	}
	n, err := safecast.Conv[uint32](len(r.paths))
	if err != nil {
		return NoDefID, fmt.Errorf("lang item table overflow: %w", err)
	}
	id := DefID(n)
	r.paths = append(r.paths, path)
	r.byPath[path] = id
	r.defs[it] = id
	return id, nil
}

// Get returns the definition bound to it, if any.
func (r *Registry) Get(it Item) (DefID, bool) {
	if r == nil || it >= itemCount {
		return NoDefID, false
	}
	id := r.defs[it]
	return id, id != NoDefID
}

// Require is Get with a descriptive error for missing items.
func (r *Registry) Require(it Item) (DefID, error) {
	if id, ok := r.Get(it); ok {
		return id, nil
	}
	return NoDefID, &MissingError{Item: it}
}

// Path returns the symbol path of a definition.
func (r *Registry) Path(def DefID) string {
	if r == nil || def == NoDefID || int(def) >= len(r.paths) {
		return ""
	}
	return r.paths[def]
}

// Len reports how many items are bound.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.paths) - 1
}

// Entries returns "name = path" pairs sorted by name; used for fingerprints.
func (r *Registry) Entries() []string {
	out := make([]string, 0, r.Len())
	for it := ItemPanic; it < itemCount; it++ {
		if id := r.defs[it]; id != NoDefID {
			out = append(out, it.Name()+"="+r.paths[id])
		}
	}
	sort.Strings(out)
	return out
}

type itemTable struct {
	Items map[string]string `toml:"items"`
}

// LoadFile reads a lang-item table:
//
//	[items]
//	panic_shift_overflow = "core::panicking::shift_overflow"
//	drop_in_place = "core::ptr::drop_in_place"
func LoadFile(path string) (*Registry, error) {
	var cfg itemTable
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("items") {
		return nil, fmt.Errorf("%s: %w", path, ErrItemsSectionMissing)
	}
	return fromTable(path, cfg.Items)
}

// Parse is LoadFile for an in-memory table.
func Parse(name, data string) (*Registry, error) {
	var cfg itemTable
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if !meta.IsDefined("items") {
		return nil, fmt.Errorf("%s: %w", name, ErrItemsSectionMissing)
	}
	return fromTable(name, cfg.Items)
}

func fromTable(origin string, items map[string]string) (*Registry, error) {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic DefIDs and error order

	r := NewRegistry()
	seen := make(map[string]string, len(names))
	for _, raw := range names {
		name := norm.NFC.String(strings.TrimSpace(raw))
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%s: lang item %q listed twice (as %q and %q)", origin, name, prev, raw)
		}
		seen[name] = raw
		it, ok := ItemFromName(name)
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", origin, ErrUnknownItem, name)
		}
		if _, err := r.Set(it, items[raw]); err != nil {
			return nil, fmt.Errorf("%s: %w", origin, err)
		}
	}
	return r, nil
}
