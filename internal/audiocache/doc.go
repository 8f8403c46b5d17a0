// Package audiocache stores downloaded and preprocessed audio artifacts
// keyed by video identifier.
//
// Entries are advisory: anything may be deleted at any time and the pipeline
// treats absence as a cache miss. Eligibility for reuse combines freshness,
// size, and decoded duration; a failed duration probe silently degrades to a
// miss.
package audiocache
