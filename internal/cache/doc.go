// Package cache stores synthesized clips so repeated lines and re-runs do
// not call the speech API again. It has an in-memory LRU level and a
// persistent zstd-compressed disk level guarded by a directory lock.
package cache
