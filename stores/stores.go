package stores

import (
	"encoding/json"
	"sort"
)

// Store is a read-only projection of a physical location with camera
// sensors. Camera descriptors are opaque to this client; only their presence
// matters.
type Store struct {
	Name    string            `json:"name"`
	Cameras []json.RawMessage `json:"cameras"`
}

// Active reports whether the store can be selected for data queries.
func (s Store) Active() bool {
	return len(s.Cameras) > 0
}

// ActiveStores filters out stores without cameras and sorts the rest by name
// ascending, the order the store picker presents them in.
func ActiveStores(list []Store) []Store {
	active := make([]Store, 0, len(list))
	for _, s := range list {
		if s.Active() {
			active = append(active, s)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].Name < active[j].Name
	})
	return active
}

// FirstActive returns the first store with cameras, in the given order.
func FirstActive(list []Store) (Store, bool) {
	for _, s := range list {
		if s.Active() {
			return s, true
		}
	}
	return Store{}, false
}
