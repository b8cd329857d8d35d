package remote

import (
	"context"
	"path"
	"strings"
)

// Record collections.
const (
	CollectionProfiles = "profiles"
	CollectionWeights  = "weight_entries"
	CollectionWorkouts = "workout_entries"
)

// RecordStore persists opaque record bodies addressed by collection and key.
// Keys may contain "/" to group records (e.g. "<user>/<date>").
//
// Errors wrap fit.ErrNotFound (Get only), fit.ErrUnreachable when the
// backend could not be reached, or fit.ErrRemoteFailure otherwise.
type RecordStore interface {
	Put(ctx context.Context, collection, key string, body []byte) error
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// List returns the keys in collection that start with prefix, sorted.
	List(ctx context.Context, collection, prefix string) ([]string, error)

	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, collection, key string) error

	// Ping performs the cheapest possible round trip.
	Ping(ctx context.Context) error
}

func recordKey(parts ...string) string {
	return path.Join(parts...)
}

// validKey rejects keys that could escape their collection.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
