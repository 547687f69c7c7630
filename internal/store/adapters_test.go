package store

import (
	"time"

	cachepkg "github.com/ArifBabayev05/backlify-client/internal/cache"
)

// adapterEntry builds a cache.Entry fixture for adapter tests.
func adapterEntry(family string) *cachepkg.Entry {
	now := time.Now()
	return &cachepkg.Entry{
		Payload:    []byte(`{"ok":true}`),
		StatusCode: 200,
		Family:     family,
		Method:     "GET",
		Path:       "/" + family,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
}
