// Package romaji covers the Latin-script side of caption processing: a
// Transliterator boundary for kana/kanji to Hepburn conversion (kakasi by
// default) and the normalization applied to romanized text before it is
// compared downstream.
package romaji
