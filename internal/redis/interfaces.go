package redis

import "ridefare/internal/service"

// The Redis stores back the optional policy cache and ride lock.
var (
	_ service.PolicyCache = (*CacheStore)(nil)
	_ service.RideLocker  = (*LockStore)(nil)
)
