package queryplan

import "github.com/google/uuid"

// RelationKind identifies how a Relation's target collection is joined back
// to its parent: many-to-one, one-to-many, any-to-one (polymorphic) or
// one-to-any (the inverse of a2o).
type RelationKind int

const (
	// KindM2O is a many-to-one relation: the parent row carries the foreign key.
	KindM2O RelationKind = iota
	// KindO2M is a one-to-many relation: the target rows carry the foreign key.
	KindO2M
	// KindA2O is a polymorphic many-to-one relation, resolved through a
	// discriminator column plus a ":scope" suffix on the path segment.
	KindA2O
	// KindO2A is the inverse of KindA2O.
	KindO2A
)

func (k RelationKind) String() string {
	switch k {
	case KindM2O:
		return "m2o"
	case KindO2M:
		return "o2m"
	case KindA2O:
		return "a2o"
	case KindO2A:
		return "o2a"
	default:
		return "unknown"
	}
}

// isInline reports whether this relation kind is compiled as an inline join
// (m2o, a2o) rather than as an existence subquery (o2m, o2a).
func (k RelationKind) isInline() bool {
	return k == KindM2O || k == KindA2O
}

// FieldType names the scalar type a Field holds, used by the coercion layer
// (coerce.go) to turn raw filter values into the type an operator expects.
type FieldType int

const (
	FieldString FieldType = iota
	FieldText
	FieldInt
	FieldFloat
	FieldBool
	FieldDate
	FieldUUID
	FieldJSON
)

// Field describes one scalar column of a Collection.
type Field struct {
	Name   string
	Column string
	Type   FieldType
}

// Relation describes one edge from a Collection to another.
type Relation struct {
	Name   string
	Kind   RelationKind
	Target string

	// LocalKey/ForeignKey name the join columns: LocalKey always lives on
	// the parent (the collection this Relation is attached to) and
	// ForeignKey on the target, for every kind - the target simply carries
	// the value ("the one side" for m2o/a2o, "the many side" for o2m/o2a).
	LocalKey   string
	ForeignKey string

	// DiscriminatorColumn/Scopes only apply to a2o/o2a relations. For a2o
	// the discriminator column lives on the parent and is compared against
	// the ":scope" suffix; for o2a it lives on the target and is compared
	// against the parent collection's name. Scopes maps a ":scope" suffix
	// to the collection it addresses.
	DiscriminatorColumn string
	Scopes              map[string]string
}

// Collection is one addressable table/view in the Schema.
type Collection struct {
	Name      string
	Table     string
	Fields    map[string]*Field
	Relations map[string]*Relation
}

// Schema is the full relational map the compiler resolves paths against.
type Schema struct {
	Collections map[string]*Collection

	// namespace seeds the deterministic ids handed out by NewCollectionID;
	// it is schema-scoped so two schemas never collide even if built in
	// the same process.
	namespace uuid.UUID
}

// NewSchema returns an empty Schema ready for fluent population via
// AddCollection.
func NewSchema() *Schema {
	return &Schema{
		Collections: make(map[string]*Collection),
		namespace:   uuid.New(),
	}
}

// NewCollectionID returns a deterministic id for name, stable across calls
// against the same Schema. It exists for callers that want a stable
// synthetic identifier per collection without maintaining their own id
// table.
func (s *Schema) NewCollectionID(name string) uuid.UUID {
	return uuid.NewSHA1(s.namespace, []byte(name))
}

// AddCollection registers a new Collection named name backed by table and
// returns it for fluent chaining with AddField/AddRelation.
func (s *Schema) AddCollection(name, table string) *Collection {
	c := &Collection{
		Name:      name,
		Table:     table,
		Fields:    make(map[string]*Field),
		Relations: make(map[string]*Relation),
	}
	s.Collections[name] = c
	return c
}

// Collection looks up a registered collection by name.
func (s *Schema) Collection(name string) (*Collection, bool) {
	c, ok := s.Collections[name]
	return c, ok
}

// AddField registers a scalar field and returns the Collection for chaining.
func (c *Collection) AddField(name, column string, typ FieldType) *Collection {
	c.Fields[name] = &Field{Name: name, Column: column, Type: typ}
	return c
}

// AddRelation registers a m2o or o2m relation and returns the Collection
// for chaining. For a2o/o2a relations use AddPolymorphicRelation.
func (c *Collection) AddRelation(name string, kind RelationKind, target, localKey, foreignKey string) *Collection {
	c.Relations[name] = &Relation{
		Name:       name,
		Kind:       kind,
		Target:     target,
		LocalKey:   localKey,
		ForeignKey: foreignKey,
	}
	return c
}

// AddPolymorphicRelation registers an a2o or o2a relation, whose target
// collection is resolved at path-resolution time from the ":scope" suffix
// rather than being fixed on the Relation itself.
func (c *Collection) AddPolymorphicRelation(name string, kind RelationKind, localKey, foreignKey, discriminator string, scopes map[string]string) *Collection {
	c.Relations[name] = &Relation{
		Name:                name,
		Kind:                kind,
		LocalKey:            localKey,
		ForeignKey:          foreignKey,
		DiscriminatorColumn: discriminator,
		Scopes:              scopes,
	}
	return c
}

// Field looks up a scalar field by name.
func (c *Collection) Field(name string) (*Field, bool) {
	f, ok := c.Fields[name]
	return f, ok
}

// Relation looks up a relation by name.
func (c *Collection) Relation(name string) (*Relation, bool) {
	r, ok := c.Relations[name]
	return r, ok
}
