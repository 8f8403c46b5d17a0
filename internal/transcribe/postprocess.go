package transcribe

import (
	"context"
	"fmt"

	"romajitool/internal/romaji"
)

// TranscriptSegment is a recognizer segment enriched with romanization.
type TranscriptSegment struct {
	Start            float64
	End              float64
	Text             string
	Romaji           string
	RomajiNormalized string
}

// Romanize transliterates each segment and attaches the normalized form used
// for matching. Input segments are assumed pruned of blank text.
func Romanize(ctx context.Context, segments []Segment, tr romaji.Transliterator) ([]TranscriptSegment, error) {
	result := make([]TranscriptSegment, 0, len(segments))
	for _, segment := range segments {
		romanized, err := tr.Transliterate(ctx, segment.Text)
		if err != nil {
			return nil, fmt.Errorf("transliterate segment at %.2fs: %w", segment.Start, err)
		}
		result = append(result, TranscriptSegment{
			Start:            segment.Start,
			End:              segment.End,
			Text:             segment.Text,
			Romaji:           romanized,
			RomajiNormalized: romaji.Normalize(romanized),
		})
	}
	return result, nil
}
