// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package listview

import "sync"

var registry sync.Map // id -> Adapter

// Register makes a for Lookup until Unregister.
func Register(a Adapter) {
	registry.Store(a.ID(), a)
}

// Unregister removes the adapter with id.
func Unregister(id string) {
	registry.Delete(id)
}

// Lookup resolves a cell owner identifier.
func Lookup(id string) (Adapter, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := registry.Load(id)
	if !ok {
		return nil, false
	}
	return v.(Adapter), true
}
