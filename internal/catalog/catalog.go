package catalog

import (
	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

// Entry is one compiled watch.
type Entry struct {
	ID          string
	Description string
	Source      *watch.SourceBuilder
	Fingerprint string // sha256 of the canonical JSON document
	Revision    string // sha256 of the exact tree; changes whenever any rendering changes
}

// Catalog holds compiled watches in file order.
// It is immutable once built; hot-reload builds a new Catalog and swaps it atomically.
// Callers must not mutate the builders it hands out.
type Catalog struct {
	entries map[string]*Entry
	ids     []string
}

// New allocates an empty Catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

func (c *Catalog) add(e *Entry) {
	if _, exists := c.entries[e.ID]; !exists {
		c.ids = append(c.ids, e.ID)
	}
	c.entries[e.ID] = e
}

// Get returns the builder for id.
func (c *Catalog) Get(id string) (*watch.SourceBuilder, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.Source, true
}

// Entry returns the compiled entry for id (nil if not found).
func (c *Catalog) Entry(id string) *Entry {
	return c.entries[id]
}

// IDs returns watch ids in file order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of watches.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// Fingerprint returns the document fingerprint of id.
func (c *Catalog) Fingerprint(id string) (string, bool) {
	e, ok := c.entries[id]
	if !ok {
		return "", false
	}
	return e.Fingerprint, true
}

// Revision returns the document revision of id.
func (c *Catalog) Revision(id string) (string, bool) {
	e, ok := c.entries[id]
	if !ok {
		return "", false
	}
	return e.Revision, true
}

// Changes lists the watch ids that differ between two catalogs.
type Changes struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether nothing changed.
func (ch Changes) Empty() bool {
	return len(ch.Added) == 0 && len(ch.Removed) == 0 && len(ch.Changed) == 0
}

// Diff compares c against old by revision, so reordered actions count as a
// change. A nil old catalog reports every watch as added.
func (c *Catalog) Diff(old *Catalog) Changes {
	var ch Changes
	for _, id := range c.ids {
		prev, ok := old.lookup(id)
		switch {
		case !ok:
			ch.Added = append(ch.Added, id)
		case prev.Revision != c.entries[id].Revision:
			ch.Changed = append(ch.Changed, id)
		}
	}
	if old != nil {
		for _, id := range old.ids {
			if _, ok := c.entries[id]; !ok {
				ch.Removed = append(ch.Removed, id)
			}
		}
	}
	return ch
}

func (c *Catalog) lookup(id string) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.entries[id]
	return e, ok
}
