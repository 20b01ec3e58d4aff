// Package meta resolves entity descriptors into immutable EntityMetadata.
//
// An entity is described once, explicitly, by a Descriptor: its type id, its
// table name and an ordered list of field definitions. Descriptors are built
// by hand (Entity builder), derived from a typed Mapping[T], or loaded from
// declarative CUE files by the schema package. No runtime reflection over Go
// struct fields is involved.
//
// RESOLUTION:
//
//	[Descriptor] → Resolver.Resolve → [*EntityMetadata] (cached per TypeID)
//
// The Resolver owns a concurrency-safe cache with insert-if-absent semantics.
// Resolving the same TypeID twice returns the same *EntityMetadata pointer.
// Entries are never evicted; the cache lives as long as the Resolver.
//
// NAMING:
//
// Default column and table names are derived from member and type names
// through a NamingPolicy. The default policy lower-cases names, which is a
// dialect convenience rather than a metadata invariant: explicit aliases are
// always kept verbatim.
//
// IDENTITY ENTITIES:
//
// An entity is an identity entity when its descriptor names an identity
// member (the Identifiable capability for Mapping[T]) or marks exactly one
// field as identity. That field is the only primary key of the entity.
package meta
