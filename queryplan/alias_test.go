package queryplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasAllocatorUnique(t *testing.T) {
	a := NewAliasAllocator(5, nil)

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		alias := a.Next()
		assert.Len(t, alias, 5)
		assert.False(t, seen[alias], "alias %q allocated twice", alias)
		seen[alias] = true
	}
}

func TestAliasAllocatorAvoidsCollectionNames(t *testing.T) {
	schema := NewSchema()
	schema.AddCollection("users", "users")
	schema.AddCollection("posts", "posts")

	a := NewAliasAllocator(5, schema)
	for i := 0; i < 200; i++ {
		alias := a.Next()
		assert.NotEqual(t, "users", alias)
		assert.NotEqual(t, "posts", alias)
	}
}

func TestAliasMapAllocatesFreshPerRequest(t *testing.T) {
	schema := NewSchema()
	schema.AddCollection("posts", "posts").
		AddRelation("author", KindM2O, "authors", "author_id", "id")
	schema.AddCollection("authors", "authors")

	m := NewAliasMap(NewAliasAllocator(5, schema))
	rel, _ := schema.Collection("posts")
	r, _ := rel.Relation("author")

	first := m.request("posts", "author", r, KindM2O, "authors", "")
	second := m.request("posts", "author", r, KindM2O, "authors", "")

	assert.NotEqual(t, first, second, "spec requires a fresh alias per request even for identical paths")
	assert.Len(t, m.entries[aliasKey{parent: "posts", segment: "author"}], 2)
}
