// Package identity produces collision-free, stable identifiers for entities
// created on the client before any server round-trip has assigned them one.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// petitionIDDomain separates petition-id hashes from any other sha256 use.
const petitionIDDomain = "recordflow/petition-id/v1"

// PetitionID returns an id distinct from every id in existing.
//
// While the existing ids are all numeric the result is the next integer past
// the largest, formatted as a string, so client-created petitions count up
// predictably. Once a non-numeric id is present (server-assigned ids, ids
// restored from an old session) the generator switches to a hash of the
// sorted id set. Both paths are deterministic for identical input, which the
// tests rely on, and neither can return a member of the input set.
func PetitionID(existing []string) string {
	numeric := true
	var max int64
	set := make(map[string]bool, len(existing))
	for _, id := range existing {
		set[id] = true
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			numeric = false
			continue
		}
		if n > max {
			max = n
		}
	}

	if numeric {
		return strconv.FormatInt(max+1, 10)
	}

	sorted := slices.Clone(existing)
	slices.Sort(sorted)
	seed := strings.Join(sorted, "\x00")
	for round := 0; ; round++ {
		h := sha256.New()
		h.Write([]byte(petitionIDDomain))
		h.Write([]byte{0x00})
		h.Write([]byte(seed))
		h.Write([]byte{0x00})
		h.Write([]byte(strconv.Itoa(round)))
		id := "petition-" + hex.EncodeToString(h.Sum(nil))[:16]
		if !set[id] {
			return id
		}
	}
}

// SourceRecordID returns a fresh identifier for a locally ingested source
// record. Source-record ids are UUIDs on the server side as well, so a
// client-assigned one can survive integration unchanged.
func SourceRecordID() string {
	return uuid.NewString()
}
