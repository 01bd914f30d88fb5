package dynsched

import "context"

// Keys of the persisted client state.
const (
	StorageKeyUser         = "user"
	StorageKeyToken        = "token"
	StorageKeyProfileImage = "profileImage"

	// legacy schemes, only ever removed
	StorageKeyLegacyLoggedIn = "isLoggedIn"
	StorageKeyLegacyUsername = "username"
)

// KeyValueStore is the client's durable key/value storage.
type KeyValueStore interface {
	// Get returns ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetMany writes all entries or none.
	SetMany(ctx context.Context, entries map[string]string) error
	// Remove deletes keys; absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error
}

// Session is the currently authenticated identity and its credential.
type Session struct {
	User  *User
	Token string
}
