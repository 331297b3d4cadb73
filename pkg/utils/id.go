package utils

import (
	"fmt"
	"sync/atomic"
	"time"
)

// seq reduces collisions when multiple ids are minted within the same
// nanosecond timestamp.
var seq uint64

// GenID returns a sortable opaque identifier with the given prefix, built
// from a nanosecond timestamp and a process-local counter.
func GenID(prefix string) string {
	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&seq, 1)
	return fmt.Sprintf("%s-%020d-%06d", prefix, ts, s)
}
