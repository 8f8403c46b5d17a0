// Command romajitool aligns Japanese audio with romanized captions: it
// downloads and caches audio, transcribes it with escalating recognizer
// passes, and emits timestamped romaji segments as JSON.
package main
