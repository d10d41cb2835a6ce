package localstore

import (
	"context"
	"fmt"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Open picks a backend by driver name. target is a file path for sqlite and
// an address or URL for redis; memory ignores it.
func Open(ctx context.Context, driver, target string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(target)
	case DriverRedis:
		return ConnectRedis(ctx, target, "")
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
