// Package transcribe produces timed Japanese captions from preprocessed
// audio, escalating through recognizer passes when a quieter mix defeats the
// default settings.
package transcribe
