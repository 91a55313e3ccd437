// Package mem allocates the cache-line aligned buffers that back resident
// field blocks.
package mem
