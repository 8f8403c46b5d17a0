package romaji

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Transliterator converts Japanese text into a Latin-script (Hepburn)
// rendering. The conversion itself is a black box; the pipeline only
// sequences around it.
type Transliterator interface {
	Transliterate(ctx context.Context, text string) (string, error)
}

// StdinRunner feeds input to a command's stdin and returns its stdout.
// Overridable for tests.
type StdinRunner func(ctx context.Context, input, binary string, args ...string) (string, error)

func defaultStdinRunner(ctx context.Context, input, binary string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Kakasi transliterates through the kakasi command line tool.
type Kakasi struct {
	binary string
	runner StdinRunner
}

// NewKakasi creates a transliterator for the given binary ("kakasi" when
// empty).
func NewKakasi(binary string) *Kakasi {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "kakasi"
	}
	return &Kakasi{binary: binary, runner: defaultStdinRunner}
}

// WithRunner sets a custom runner (for testing).
func (k *Kakasi) WithRunner(runner StdinRunner) *Kakasi {
	if runner != nil {
		k.runner = runner
	}
	return k
}

// Transliterate converts text to Hepburn romaji.
func (k *Kakasi) Transliterate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("transliterate: empty text")
	}
	// -Ja/-Ha/-Ka: kanji, hiragana, and katakana to romaji; -Ea converts
	// fullwidth symbols; -s separates words.
	out, err := k.runner(ctx, text, k.binary, "-i", "utf8", "-o", "utf8", "-Ja", "-Ha", "-Ka", "-Ea", "-s")
	if err != nil {
		return "", fmt.Errorf("kakasi: %w", err)
	}
	return strings.TrimSpace(out), nil
}
