package session

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Data is the in-memory view of the persisted session. A zero Expiry means
// "unknown", which the Store treats as already expired.
type Data struct {
	AccessToken  string
	RefreshToken string
	Email        string
	Expiry       time.Time
}

// HasAccessToken reports whether an access token is stored at all.
func (d Data) HasAccessToken() bool {
	return d.AccessToken != ""
}

// Valid reports whether the stored access token is usable at the given time
// without any network access.
func (d Data) Valid(now time.Time) bool {
	return d.AccessToken != "" && !d.Expiry.IsZero() && now.Before(d.Expiry)
}

func readData(storage Storage) (Data, error) {
	var data Data
	var err error

	if data.AccessToken, err = storage.Get(KeyAccessToken); err != nil {
		return Data{}, errors.Wrap(err, "[session.readData] access token")
	}
	if data.RefreshToken, err = storage.Get(KeyRefreshToken); err != nil {
		return Data{}, errors.Wrap(err, "[session.readData] refresh token")
	}
	if data.Email, err = storage.Get(KeyEmail); err != nil {
		return Data{}, errors.Wrap(err, "[session.readData] email")
	}

	rawExpiry, err := storage.Get(KeyExpiry)
	if err != nil {
		return Data{}, errors.Wrap(err, "[session.readData] expiry")
	}
	// The expiry is stored as a millisecond timestamp string. Anything that
	// does not parse to a positive value is treated as absent.
	if millis, parseErr := strconv.ParseInt(rawExpiry, 10, 64); parseErr == nil && millis > 0 {
		data.Expiry = time.UnixMilli(millis)
	}
	return data, nil
}
