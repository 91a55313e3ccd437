// Package resource implements the Controller that bounds a session's use of
// memory, worker goroutines and bulk IO bandwidth.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Worker Slots   │  IO Rate Limiter        │
//	│  (fail-fast)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireWorker  │  AcquireIO              │
//	│  ReleaseMemory  │  TryAcquire-    │  RateLimitedWriter      │
//	│  MemoryUsage    │  Worker         │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// Resident field blocks reserve memory before allocation, so a dataset that
// does not fit fails with ErrMemoryLimitExceeded instead of exhausting the
// process. Worker slots bound the statistics fan-out; the count defaults to
// the CPU count and is capped at MaxWorkers. The IO limiter throttles bulk
// page imports and archive transfers.
//
// All methods are safe for concurrent use and handle a nil Controller as an
// unlimited one.
package resource
