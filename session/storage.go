package session

// Keys under which the session fields are persisted. They survive process
// restarts and are always cleared together.
const (
	KeyAccessToken  = "user_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiry       = "token_expiry"
	KeyEmail        = "user_email"
)

// Storage persists session fields as raw key-value strings. A missing key
// reads back as the empty string. Clear removes every key at once.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear() error
}
