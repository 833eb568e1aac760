// Package moderation decides at write time whether a post is censored.
//
// Classification is a two-stage gate: the normalized text must first contain
// one of a fixed set of trigger words, and only then is the remainder scanned
// for administrator-managed denylist words. The denylist is held in a
// read-mostly cache that is refreshed on access once its TTL has elapsed, and
// can be invalidated early by a Postgres LISTEN/NOTIFY listener.
//
// Classification never fails: if the denylist cannot be loaded it is treated
// as empty and content is let through.
package moderation
