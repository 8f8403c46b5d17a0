// Package testsupport provides shared helpers for package tests: temp-backed
// configurations, sized files, and stubbed external binaries on PATH.
package testsupport
