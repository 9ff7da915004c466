/*
 * Copyright 2018-2023 Open Networking Foundation (ONF) and the ONF Contributors

 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at

 * http://www.apache.org/licenses/LICENSE-2.0

 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package installer

import (
	"sort"
	"sync"

	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
)

// Cache holds the entries programmed on devices, keyed by rule id.
// Each entry has its own lock, the cache lock only protects the map.
type Cache struct {
	lock    sync.RWMutex
	entries map[uint64]*slot
}

type slot struct {
	// protects entry and removed
	lock    sync.Mutex
	removed bool

	entry *pi.TableEntry
}

// NewCache creates an empty entry cache
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]*slot)}
}

// LockOrCreate locks the entry stored under entry.RuleID, storing entry if there is none.
// The boolean is true when entry was stored. A stored entry must not be modified afterwards.
func (c *Cache) LockOrCreate(entry *pi.TableEntry) (*Handle, bool) {
	if h, have := c.Lock(entry.RuleID); have {
		return h, false
	}

	c.lock.Lock()
	s, have := c.entries[entry.RuleID]
	if !have {
		s = &slot{entry: entry}
		c.entries[entry.RuleID] = s
		s.lock.Lock()
		c.lock.Unlock()
		return &Handle{cache: c, slot: s}, true
	}
	c.lock.Unlock()

	s.lock.Lock()
	if s.removed {
		s.lock.Unlock()
		return c.LockOrCreate(entry)
	}
	return &Handle{cache: c, slot: s}, false
}

// Lock locks the entry of the given rule. It returns false if there is none.
func (c *Cache) Lock(ruleID uint64) (*Handle, bool) {
	c.lock.RLock()
	s, have := c.entries[ruleID]
	c.lock.RUnlock()
	if !have {
		return nil, false
	}

	s.lock.Lock()
	if s.removed {
		s.lock.Unlock()
		return c.Lock(ruleID)
	}
	return &Handle{cache: c, slot: s}, true
}

// Get returns the entry of the given rule without holding its lock
func (c *Cache) Get(ruleID uint64) (*pi.TableEntry, bool) {
	h, have := c.Lock(ruleID)
	if !have {
		return nil, false
	}
	defer h.Unlock()
	return h.GetReadOnly(), true
}

// List returns a snapshot of the cached entries ordered by rule id
func (c *Cache) List() []*pi.TableEntry {
	c.lock.RLock()
	ids := make([]uint64, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.lock.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ret := make([]*pi.TableEntry, 0, len(ids))
	for _, id := range ids {
		if entry, have := c.Get(id); have {
			ret = append(ret, entry)
		}
	}
	return ret
}

// Handle gives access to a locked entry until Unlock is called
type Handle struct {
	cache *Cache
	slot  *slot
}

// GetReadOnly returns the entry, which must not be modified
func (h *Handle) GetReadOnly() *pi.TableEntry {
	return h.slot.entry
}

// Update replaces the entry. It must keep the same rule id.
func (h *Handle) Update(entry *pi.TableEntry) {
	h.slot.entry = entry
}

// Delete drops the entry from the cache and unlocks the handle
func (h *Handle) Delete() {
	h.slot.removed = true

	h.cache.lock.Lock()
	delete(h.cache.entries, h.slot.entry.RuleID)
	h.cache.lock.Unlock()

	h.Unlock()
}

// Unlock releases the entry lock. The handle cannot be used afterwards.
func (h *Handle) Unlock() {
	if h.slot != nil {
		h.slot.lock.Unlock()
		h.slot = nil
	}
}
