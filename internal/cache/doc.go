// Package cache stores rendered equation images on the local filesystem,
// addressed by the SHA-256 fingerprint of the equation markup and sharded
// by the first hex digit of that fingerprint.
//
// Writes go to a temp file inside the destination shard and are renamed into
// place, so readers never observe a partial image and concurrent writers of
// the same key are harmless.
package cache
