// Package store holds the client-side state tree: one keyed collection per
// entity type plus the singleton slices (attorney, user, analysis).
//
// Each collection is a map of id to entity together with an ordered id list
// that fixes canonical display and iteration order. Removal cascades to owned
// children and prunes every ordered list referencing the removed ids, so the
// tree never holds orphaned references; Check verifies that invariant for
// tests. Multi-entity operations are expressed as a Changeset and applied
// atomically.
package store
