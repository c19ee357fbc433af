package entity

// IndexKind identifies which index implementation an IndexDescriptor
// configures.
type IndexKind string

const (
	IndexKindScalar   IndexKind = "scalar"
	IndexKindRank     IndexKind = "rank"
	IndexKindVectorPQ IndexKind = "vector-pq"
	IndexKindText     IndexKind = "text"
)

// IndexStatus tracks an index's build lifecycle.
type IndexStatus string

const (
	IndexStatusBuilding IndexStatus = "building"
	IndexStatusReady    IndexStatus = "ready"
	IndexStatusFailed   IndexStatus = "failed"
)

// IndexDescriptor describes one index over an entity type.
type IndexDescriptor struct {
	Name IndexDescriptorName
	Kind IndexKind

	// Fields is the ordered list of field names forming the index key.
	// For IndexKindScalar the left-prefix rule applies: a query can only
	// use a prefix of this list as equality predicates plus one trailing
	// range predicate.
	Fields []string

	// VectorDimension and VectorSubquantizers configure IndexKindVectorPQ;
	// both are ignored for other kinds.
	VectorDimension     int
	VectorSubquantizers int

	// RankDescending configures IndexKindRank's sort direction.
	RankDescending bool
}

// IndexDescriptorName is an index's unique name within its owning entity
// type.
type IndexDescriptorName string

// IndexState is the persisted build state for one index, tracked under
// the index-state subspace.
type IndexState struct {
	Status             IndexStatus
	BuiltThroughVersion uint64
}

// EntityDescriptor holds everything the record store and index
// maintainers need to know about one entity type.
type EntityDescriptor struct {
	Name    TypeName
	Indexes []IndexDescriptor
}

// Schema is the full set of entity descriptors known to a record store.
type Schema struct {
	Entities map[TypeName]EntityDescriptor
}

// NewSchema builds a Schema from a list of entity descriptors.
func NewSchema(entities ...EntityDescriptor) Schema {
	s := Schema{Entities: make(map[TypeName]EntityDescriptor, len(entities))}
	for _, e := range entities {
		s.Entities[e.Name] = e
	}
	return s
}

// Index looks up an index descriptor by entity type and index name.
func (s Schema) Index(typeName TypeName, indexName IndexDescriptorName) (IndexDescriptor, bool) {
	ed, ok := s.Entities[typeName]
	if !ok {
		return IndexDescriptor{}, false
	}
	for _, idx := range ed.Indexes {
		if idx.Name == indexName {
			return idx, true
		}
	}
	return IndexDescriptor{}, false
}
