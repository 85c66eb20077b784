// Package counter implements sliding-window counter stores for admission
// control: in-process, Redis and PostgreSQL.
package counter

import (
	"errors"
	"fmt"
	"time"
)

var errKeyRequired = errors.New("rate limit key is required")

func validateKey(key string, window time.Duration) error {
	if key == "" {
		return errKeyRequired
	}
	if window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	return nil
}
