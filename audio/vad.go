package audio

import (
	"fmt"
	"math"
)

// SpeechRange is a half-open time range [Start, End) in seconds classified
// as speech.
type SpeechRange struct {
	Start float64
	End   float64
}

// VADConfig holds energy-based voice activity detection parameters.
type VADConfig struct {
	// WindowDuration is the RMS analysis window in seconds. Windows are
	// non-overlapping. Default 0.03.
	WindowDuration float64

	// EnergyThreshold is the RMS level at or above which a window counts as
	// speech. Default 0.012.
	EnergyThreshold float64

	// MinSpeechDuration drops speech runs shorter than this. Default 0.24.
	MinSpeechDuration float64

	// MinSilenceDuration ends a speech run only after this much continuous
	// silence, bridging brief pauses within one utterance. Default 0.45.
	MinSilenceDuration float64

	// MaxSegmentDuration caps a single speech run so downstream decoding
	// works on bounded chunks. Default 18.0.
	MaxSegmentDuration float64

	// MergeGap merges adjacent speech runs separated by less than this many
	// seconds. Default 0.15.
	MergeGap float64
}

// DefaultVADConfig returns the documented default parameters.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		WindowDuration:     0.03,
		EnergyThreshold:    0.012,
		MinSpeechDuration:  0.24,
		MinSilenceDuration: 0.45,
		MaxSegmentDuration: 18.0,
		MergeGap:           0.15,
	}
}

func (cfg VADConfig) withDefaults() VADConfig {
	def := DefaultVADConfig()
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = def.WindowDuration
	}
	if cfg.EnergyThreshold <= 0 {
		cfg.EnergyThreshold = def.EnergyThreshold
	}
	if cfg.MinSpeechDuration <= 0 {
		cfg.MinSpeechDuration = def.MinSpeechDuration
	}
	if cfg.MinSilenceDuration <= 0 {
		cfg.MinSilenceDuration = def.MinSilenceDuration
	}
	if cfg.MaxSegmentDuration <= 0 {
		cfg.MaxSegmentDuration = def.MaxSegmentDuration
	}
	if cfg.MergeGap <= 0 {
		cfg.MergeGap = def.MergeGap
	}
	return cfg
}

// DetectSpeech partitions samples into speech ranges by short-time RMS
// energy. Ranges are non-overlapping, ascending, and a subset of
// [0, duration]. All-silence audio yields an empty slice, not an error.
func DetectSpeech(samples []float64, sampleRate int, cfg VADConfig) ([]SpeechRange, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("vad: sample rate must be positive, got %d", sampleRate)
	}
	cfg = cfg.withDefaults()

	frameLen := int(float64(sampleRate) * cfg.WindowDuration)
	if frameLen <= 0 {
		return nil, fmt.Errorf("vad: window duration %v too small for sample rate %d", cfg.WindowDuration, sampleRate)
	}

	rms := frameRMS(samples, frameLen)
	if len(rms) == 0 {
		return nil, nil
	}

	speech := make([]bool, len(rms))
	for i, e := range rms {
		speech[i] = e >= cfg.EnergyThreshold
	}

	minSpeechFrames := max(1, int(cfg.MinSpeechDuration/cfg.WindowDuration))
	minSilenceFrames := max(1, int(cfg.MinSilenceDuration/cfg.WindowDuration))
	maxSegmentFrames := max(1, int(cfg.MaxSegmentDuration/cfg.WindowDuration))

	type span struct{ s, e int } // sample indices
	var spans []span

	i := 0
	n := len(speech)
	for i < n {
		for i < n && !speech[i] {
			i++
		}
		if i >= n {
			break
		}

		start := i
		lastSpeech := i
		silence := 0
		end := i

		for end < n {
			if speech[end] {
				lastSpeech = end
				silence = 0
			} else {
				silence++
				if silence >= minSilenceFrames {
					break
				}
			}
			if end-start >= maxSegmentFrames {
				break
			}
			end++
		}

		// Trailing silence is trimmed and does not count as speech.
		if lastSpeech+1-start >= minSpeechFrames {
			s := start * frameLen
			e := min(len(samples), (lastSpeech+1)*frameLen)
			spans = append(spans, span{s, e})
		}

		i = end + 1
	}

	// Bridge near-adjacent spans.
	mergeGapSamples := int(cfg.MergeGap * float64(sampleRate))
	var merged []span
	for _, sp := range spans {
		if len(merged) > 0 && sp.s-merged[len(merged)-1].e <= mergeGapSamples {
			if sp.e > merged[len(merged)-1].e {
				merged[len(merged)-1].e = sp.e
			}
			continue
		}
		merged = append(merged, sp)
	}

	ranges := make([]SpeechRange, len(merged))
	for j, sp := range merged {
		ranges[j] = SpeechRange{
			Start: float64(sp.s) / float64(sampleRate),
			End:   float64(sp.e) / float64(sampleRate),
		}
	}
	return ranges, nil
}

// frameRMS computes root-mean-square energy over non-overlapping windows of
// frameLen samples, dropping a trailing partial window.
func frameRMS(samples []float64, frameLen int) []float64 {
	n := len(samples) / frameLen
	rms := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for _, v := range samples[i*frameLen : (i+1)*frameLen] {
			sum += v * v
		}
		rms[i] = math.Sqrt(sum / float64(frameLen))
	}
	return rms
}
