package decoder

// Result holds the decoding output for one frame matrix.
type Result struct {
	// Text is the normalized transcript: concatenated labels of the top beam,
	// still carrying boundary markers and space placeholders. Pass through
	// Restore to obtain human-readable text.
	Text string

	// Frames lists the frame indices at which the top beam emitted a new
	// label, in ascending order.
	Frames []int

	// Pieces lists the label emitted at each entry of Frames, so callers can
	// map any prefix of Text back to a frame boundary.
	Pieces []string

	// LogScore is the combined acoustic + weighted language model score of
	// the top beam.
	LogScore float64

	// LMUsed reports whether a language model contributed to the scores.
	// False means acoustic-only decoding, which materially changes output
	// quality and must be observable by the caller.
	LMUsed bool
}
