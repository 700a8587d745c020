package queryplan

// aliasKey identifies one requested join: the parent alias (or collection
// root) plus the path segment hung off it.
type aliasKey struct {
	parent  string
	segment string
}

// AliasMap tracks the joins emitted during one Compile call. Per spec.md
// §4.3/§9 a second request for the same (parent, segment) still allocates
// a fresh alias and a fresh join rather than reusing the first - the
// "shared" alias map named in spec.md §3 means one allocator/map instance
// is threaded through filter and sort compilation, not that identical
// paths are deduplicated into a single join.
type AliasMap struct {
	allocator *AliasAllocator
	entries   map[aliasKey][]joinEntry
}

type joinEntry struct {
	alias    string
	relation *Relation
	kind     RelationKind
	target   string
	scope    string
}

// NewAliasMap returns an AliasMap backed by allocator.
func NewAliasMap(allocator *AliasAllocator) *AliasMap {
	return &AliasMap{
		allocator: allocator,
		entries:   make(map[aliasKey][]joinEntry),
	}
}

// request allocates a new alias for (parent, segment) and records the join
// so it can be inspected later (tests, diagnostics); it never reuses a
// prior allocation for the same key.
func (m *AliasMap) request(parent, segment string, rel *Relation, kind RelationKind, target, scope string) string {
	alias := m.allocator.Next()
	key := aliasKey{parent: parent, segment: segment}
	m.entries[key] = append(m.entries[key], joinEntry{
		alias:    alias,
		relation: rel,
		kind:     kind,
		target:   target,
		scope:    scope,
	})
	return alias
}
