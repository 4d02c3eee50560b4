package authkit

// Checker is an immutable snapshot of a single user's effective permissions,
// built once and consulted in memory. It does not follow later grant
// mutations; fetch a fresh one when staleness matters. Safe for concurrent
// use.
//
// Example:
//
//	checker, err := service.GetChecker(ctx, "acme", "alice")
//	if err != nil {
//	    return err
//	}
//	if checker.Has("doc:readme", "read") {
//	    // serve the document
//	}
type Checker struct {
	tenantID string
	userID   string
	entries  []EffectivePermission
	index    map[string]map[string]bool
}

// newChecker builds the snapshot from an already-ordered permission list.
func newChecker(tenantID, userID string, entries []EffectivePermission) *Checker {
	index := make(map[string]map[string]bool, len(entries))
	for _, e := range entries {
		actions := index[e.ResourceID]
		if actions == nil {
			actions = make(map[string]bool)
			index[e.ResourceID] = actions
		}
		actions[e.Action] = true
	}
	return &Checker{
		tenantID: tenantID,
		userID:   userID,
		entries:  entries,
		index:    index,
	}
}

// TenantID returns the tenant the snapshot was taken in.
func (c *Checker) TenantID() string { return c.tenantID }

// UserID returns the user the snapshot belongs to.
func (c *Checker) UserID() string { return c.userID }

// Has reports whether the snapshot contains the exact (resource, action)
// pair from any source.
func (c *Checker) Has(resourceID, action string) bool {
	return c.index[resourceID][action]
}

// HasAny reports whether the user holds at least one of the actions on the
// resource.
func (c *Checker) HasAny(resourceID string, actions ...string) bool {
	for _, a := range actions {
		if c.Has(resourceID, a) {
			return true
		}
	}
	return false
}

// HasAll reports whether the user holds every one of the actions on the
// resource. Vacuously true for an empty action list.
func (c *Checker) HasAll(resourceID string, actions ...string) bool {
	for _, a := range actions {
		if !c.Has(resourceID, a) {
			return false
		}
	}
	return true
}

// ForResource returns the snapshot entries for one resource, in snapshot
// order. The resource id is matched exactly, not as a prefix.
func (c *Checker) ForResource(resourceID string) []EffectivePermission {
	var out []EffectivePermission
	for _, e := range c.entries {
		if e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out
}

// WithPrefix returns the snapshot entries whose resource id starts with the
// prefix, optionally narrowed to one action. The empty prefix matches
// everything.
func (c *Checker) WithPrefix(resourceIDPrefix, action string) []EffectivePermission {
	return filterEffective(c.entries, resourceIDPrefix, action)
}

// Resources returns the distinct resource ids in the snapshot, ordered by
// first appearance.
func (c *Checker) Resources() []string {
	seen := make(map[string]bool, len(c.index))
	out := make([]string, 0, len(c.index))
	for _, e := range c.entries {
		if !seen[e.ResourceID] {
			seen[e.ResourceID] = true
			out = append(out, e.ResourceID)
		}
	}
	return out
}

// Actions returns the distinct actions the user holds on the resource,
// ordered by first appearance.
func (c *Checker) Actions(resourceID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.entries {
		if e.ResourceID != resourceID || seen[e.Action] {
			continue
		}
		seen[e.Action] = true
		out = append(out, e.Action)
	}
	return out
}

// Entries returns a copy of the full snapshot.
func (c *Checker) Entries() []EffectivePermission {
	out := make([]EffectivePermission, len(c.entries))
	copy(out, c.entries)
	return out
}

// IsEmpty reports whether the user holds no permissions at all.
func (c *Checker) IsEmpty() bool {
	return len(c.entries) == 0
}
