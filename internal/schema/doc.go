// Package schema declares the shape of nested record documents and provides
// the one generic normalize/denormalize pair that converts between them and
// flat, id-keyed entity collections.
//
// A Schema names each entity type, the field its id lives in, and the fields
// that hold nested children. Normalization is a depth-first walk replacing
// nested structures with id references; denormalization is the strict
// inverse. Per-entity transform code is deliberately absent: every entity
// type is handled by the same interpreter over its declaration, so the two
// directions cannot drift apart.
package schema
