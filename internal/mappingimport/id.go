package mappingimport

import (
	"github.com/google/uuid"
)

// MappingID is stable for a scope key under ns, so re-importing the same
// sheet updates rows instead of piling up new versions.
func MappingID(ns uuid.UUID, scopeKey string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte("allocation-mapping:"+scopeKey))
}
