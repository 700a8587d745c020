package queryplan

import "strings"

// splitScope splits a path segment of the form "relationName:scope" into
// its relation name and scope. scope is "" when the segment carries no
// ":scope" suffix (the common, non-polymorphic case).
func splitScope(segment string) (name, scope string) {
	if i := strings.IndexByte(segment, ':'); i >= 0 {
		return segment[:i], segment[i+1:]
	}
	return segment, ""
}

// ResolvePath resolves one path segment against parent, returning the
// relation it names, its kind, the scope suffix (non-empty only for a2o/o2a
// segments) and the concrete target collection name (resolved through
// Relation.Scopes for polymorphic relations).
func ResolvePath(schema *Schema, parent string, segment string) (rel *Relation, kind RelationKind, scope string, target string, err error) {
	name, scope := splitScope(segment)

	pc, ok := schema.Collection(parent)
	if !ok {
		return nil, 0, "", "", nil
	}

	r, ok := pc.Relation(name)
	if !ok {
		return nil, 0, "", "", nil
	}

	if r.Kind == KindA2O || r.Kind == KindO2A {
		if scope == "" {
			return nil, 0, "", "", invalidQueryf("relation %q on %q requires a :scope suffix", name, parent)
		}
		tgt, ok := r.Scopes[scope]
		if !ok {
			return nil, 0, "", "", invalidQueryf("relation %q on %q has no scope %q", name, parent, scope)
		}
		return r, r.Kind, scope, tgt, nil
	}

	return r, r.Kind, "", r.Target, nil
}
