package segment

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteTXT writes one line per segment: "[HH:MM:SS] text". Embedded newlines
// are flattened to spaces so each record stays single-line.
func WriteTXT(w io.Writer, segs []Segment) error {
	for _, s := range segs {
		text := strings.ReplaceAll(s.Text, "\n", " ")
		text = strings.Join(strings.Fields(text), " ")
		if _, err := fmt.Fprintf(w, "[%s] %s\n", hms(s.Start), text); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the segments as {"segments":[{"start","end","text"},...]}.
func WriteJSON(w io.Writer, segs []Segment) error {
	if segs == nil {
		segs = []Segment{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(struct {
		Segments []Segment `json:"segments"`
	}{Segments: segs})
}

// WriteVTT writes a WebVTT document. Multi-line segment text stays inside the
// cue body as consecutive lines.
func WriteVTT(w io.Writer, segs []Segment) error {
	if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
		return err
	}
	for _, s := range segs {
		if _, err := fmt.Fprintf(w, "%s --> %s\n%s\n\n",
			vttTimestamp(s.Start), vttTimestamp(s.End), cueText(s.Text)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSRT writes a SubRip document with 1-indexed cues. SubRip uses a comma
// between seconds and milliseconds where WebVTT uses a period.
func WriteSRT(w io.Writer, segs []Segment) error {
	for i, s := range segs {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(s.Start), srtTimestamp(s.End), cueText(s.Text)); err != nil {
			return err
		}
	}
	return nil
}

// cueText collapses paragraph breaks to single newlines: both WebVTT and
// SubRip end a cue at the first blank line, so interior blank lines would
// orphan the rest of the text.
func cueText(text string) string {
	for strings.Contains(text, "\n\n") {
		text = strings.ReplaceAll(text, "\n\n", "\n")
	}
	return text
}
