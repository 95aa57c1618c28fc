// Package lock provides named mutual exclusion, either inside one process or
// across every instance sharing a Redis server.
package lock

import "context"

// Locker hands out exclusive ownership of a name. The returned release
// function must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}
