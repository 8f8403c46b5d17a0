// Package download acquires audio for a video identifier through an ordered
// chain of extractor tiers, guarded by a stall watchdog.
//
// A stall means the process is alive but no longer making progress; it is
// treated as fatal rather than escalated, because every later tier would hit
// the same throttling. Ordinary tier failures escalate to the next tier.
package download
