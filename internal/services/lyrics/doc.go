// Package lyrics polishes machine-romanized captions through a single chat
// completion against an OpenAI-compatible endpoint.
package lyrics
