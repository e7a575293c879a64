// Package trace reassembles a serial trace of DUT-emitted events from
// a flat list of edges observed in parallel on a set of dedicated
// trace pins.
package trace

import (
	"log"
	"sort"
	"time"

	"github.com/mdclyburn/clockwise/model"
	"github.com/mdclyburn/clockwise/sw"
	"github.com/mdclyburn/clockwise/wire"
)

// Config tunes the sample/frame grouping thresholds. Neither threshold
// is fixed by the system being modeled; both are design defaults,
// deliberately left configurable per spec.md §9's open question.
type Config struct {
	// SettleThreshold is the maximum gap between consecutive edges
	// still considered part of the same sample.
	SettleThreshold time.Duration
	// FrameGap is the minimum quiescent gap between samples that
	// starts a new frame.
	FrameGap time.Duration
}

// DefaultConfig returns the design defaults: a 1ms settle threshold
// and a 4ms (4x settle) frame gap.
func DefaultConfig() Config {
	settle := time.Millisecond
	return Config{SettleThreshold: settle, FrameGap: 4 * settle}
}

// Reconstruct rebuilds a SerialTrace from edges observed on trace
// pins. edges need not be sorted; pinBits maps each trace pin to its
// bit significance (0 = LSB) within a sample byte. Edges on a pin not
// present in pinBits are dropped with a logged warning, matching
// spec.md §4.2's edge-case handling of a non-trace-pin edge passed in
// error.
func Reconstruct(edges []model.Response, spec *sw.Spec, pinBits map[uint8]uint16, cfg Config) []model.SerialTrace {
	sorted := make([]model.Response, 0, len(edges))
	for _, e := range edges {
		if _, ok := pinBits[e.Output.Pin]; !ok {
			log.Printf("trace: dropping edge on non-trace pin %d", e.Output.Pin)
			continue
		}
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	samples := groupSamples(sorted, cfg.SettleThreshold, pinBits)
	frames := groupFrames(samples, cfg.FrameGap)

	out := make([]model.SerialTrace, 0, len(frames))
	for _, f := range frames {
		so, err := wire.Decode(f.payload)
		if err != nil {
			log.Printf("trace: discarding frame at %s: %v", f.timestamp, err)
			continue
		}

		label := "?"
		if name, ok := spec.Label(int(so.Counter.Kind)); ok {
			label = name
		}

		out = append(out, model.SerialTrace{
			Timestamp: f.timestamp,
			Payload:   f.payload,
			Label:     label,
		})
	}

	return out
}

type sample struct {
	timestamp time.Time
	byteVal   byte
}

// groupSamples batches edges whose inter-edge gap is below threshold,
// reducing each batch to one byte by OR-ing in each pin that ended
// High, last-write-wins per pin within the batch.
func groupSamples(sorted []model.Response, threshold time.Duration, pinBits map[uint8]uint16) []sample {
	var samples []sample
	var batch []model.Response

	flush := func() {
		if len(batch) == 0 {
			return
		}
		final := make(map[uint8]model.Level)
		for _, e := range batch {
			final[e.Output.Pin] = e.Output.Level
		}
		var b byte
		for pin, level := range final {
			if level == model.High {
				b |= 1 << pinBits[pin]
			}
		}
		samples = append(samples, sample{timestamp: batch[0].Time, byteVal: b})
		batch = nil
	}

	for _, e := range sorted {
		if len(batch) > 0 && e.Time.Sub(batch[len(batch)-1].Time) > threshold {
			flush()
		}
		batch = append(batch, e)
	}
	flush()

	return samples
}

type frame struct {
	timestamp time.Time
	payload   []byte
}

// groupFrames batches samples separated by less than gap into frames;
// a partial trailing frame is kept if it holds at least one sample.
func groupFrames(samples []sample, gap time.Duration) []frame {
	var frames []frame
	var cur []sample

	flush := func() {
		if len(cur) == 0 {
			return
		}
		payload := make([]byte, len(cur))
		for i, s := range cur {
			payload[i] = s.byteVal
		}
		frames = append(frames, frame{timestamp: cur[0].timestamp, payload: payload})
		cur = nil
	}

	for _, s := range samples {
		if len(cur) > 0 && s.timestamp.Sub(cur[len(cur)-1].timestamp) > gap {
			flush()
		}
		cur = append(cur, s)
	}
	flush()

	return frames
}
