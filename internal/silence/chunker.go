package silence

import "math"

// Window is one bounded time range carved out of a silence-delimited speech
// region for independent transcription.
type Window struct {
	Start float64
	End   float64
}

// Policy bounds the window-splitting algorithm.
type Policy struct {
	// WindowSeconds is the nominal window length.
	WindowSeconds float64
	// MinRegionSeconds is the smallest region (or remainder) worth splitting.
	MinRegionSeconds float64
	// OverlapSeconds shifts each follow-up window backwards to avoid cutting
	// a word at the boundary.
	OverlapSeconds float64
}

// DefaultPolicy mirrors the tuned production values.
func DefaultPolicy() Policy {
	return Policy{WindowSeconds: 10, MinRegionSeconds: 5, OverlapSeconds: 0.5}
}

// Chunk converts silence events into an ordered window list covering the
// candidate speech regions of an audio file of totalDuration seconds. The
// second return value is false when no event or qualifying region exists.
//
// A candidate region runs from each silence end to the next silence start
// (or to totalDuration after the last silence). Regions at or below
// MinRegionSeconds are dropped. A kept region gets a first window of up to
// WindowSeconds; while the remainder past the nominal offset exceeds
// MinRegionSeconds, follow-up windows begin OverlapSeconds before their
// nominal offset. The remainder test happens before each follow-up window,
// so a region whose leftover lands between the minimum and the window
// length gets exactly one more window.
func Chunk(events []Event, totalDuration float64, p Policy) ([]Window, bool) {
	var starts, ends []float64
	for _, event := range events {
		switch event.Kind {
		case Start:
			starts = append(starts, event.At)
		case End:
			ends = append(ends, event.At)
		}
	}
	if len(ends) == 0 {
		return nil, false
	}

	var windows []Window
	for i, regionStart := range ends {
		regionEnd := totalDuration
		if i+1 < len(starts) {
			regionEnd = starts[i+1]
		}
		if regionEnd-regionStart <= p.MinRegionSeconds {
			continue
		}

		windows = append(windows, Window{
			Start: regionStart,
			End:   math.Min(regionEnd, regionStart+p.WindowSeconds),
		})
		offset := regionStart + p.WindowSeconds
		for regionEnd-offset > p.MinRegionSeconds {
			windows = append(windows, Window{
				Start: offset - p.OverlapSeconds,
				End:   math.Min(offset+p.WindowSeconds, regionEnd),
			})
			offset += p.WindowSeconds
		}
	}
	if len(windows) == 0 {
		return nil, false
	}
	return windows, true
}
