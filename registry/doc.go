/*
Package registry manages entity type discriminators and decoders.

Several entity types may share one container. Every stored document carries
an explicit entityType discriminator, and typed queries always filter on
it. The discriminator comes from this registry, never from Go type names,
so renaming a Go type cannot silently orphan stored documents.

Entity Type Registry:
Maps Go types to discriminator names:

	registry.RegisterEntityType[Product]("Product")
	name, err := registry.EntityTypeOf[Product]()

Types may instead implement EntityTyper:

	func (Product) EntityType() string { return "Product" }

Decoder Registry:
Maps discriminator names to decode functions used for heterogeneous reads:

	registry.RegisterDecoder("Product", func(raw []byte) (interface{}, error) {
	    var env document.Envelope[Product]
	    err := json.Unmarshal(raw, &env)
	    return &env, err
	})

document.Register performs both registrations for a type.

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
