package segment

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

var writerSegs = []Segment{
	{Start: 0.0, End: 2.5, Text: "hello"},
	{Start: 3.0, End: 5.0, Text: "world"},
}

func TestWriteSRT(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSRT(&buf, writerSegs); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:02,500\nhello\n\n" +
		"2\n00:00:03,000 --> 00:00:05,000\nworld\n\n"
	if buf.String() != want {
		t.Errorf("WriteSRT output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteVTT(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVTT(&buf, writerSegs); err != nil {
		t.Fatalf("WriteVTT: %v", err)
	}
	want := "WEBVTT\n\n" +
		"00:00:00.000 --> 00:00:02.500\nhello\n\n" +
		"00:00:03.000 --> 00:00:05.000\nworld\n\n"
	if buf.String() != want {
		t.Errorf("WriteVTT output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteSRTCommaVTTPeriod(t *testing.T) {
	var srt, vtt bytes.Buffer
	if err := WriteSRT(&srt, writerSegs); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	if err := WriteVTT(&vtt, writerSegs); err != nil {
		t.Fatalf("WriteVTT: %v", err)
	}
	if !strings.Contains(srt.String(), "00:00:03,000 --> 00:00:05,000") {
		t.Error("SRT second cue missing comma millisecond separator")
	}
	if !strings.Contains(vtt.String(), "00:00:03.000 --> 00:00:05.000") {
		t.Error("VTT second cue missing period millisecond separator")
	}
}

func TestWriteTXT(t *testing.T) {
	var buf bytes.Buffer
	segs := []Segment{
		{Start: 0.0, End: 2.5, Text: "hello"},
		{Start: 3661.9, End: 3665.0, Text: "world"},
	}
	if err := WriteTXT(&buf, segs); err != nil {
		t.Fatalf("WriteTXT: %v", err)
	}
	want := "[00:00:00] hello\n[01:01:01] world\n"
	if buf.String() != want {
		t.Errorf("WriteTXT output %q, want %q", buf.String(), want)
	}
}

func TestWriteTXT_FlattensNewlines(t *testing.T) {
	var buf bytes.Buffer
	segs := []Segment{{Start: 1.0, End: 4.0, Text: "first part.\n\nsecond part"}}
	if err := WriteTXT(&buf, segs); err != nil {
		t.Fatalf("WriteTXT: %v", err)
	}
	want := "[00:00:01] first part. second part\n"
	if buf.String() != want {
		t.Errorf("WriteTXT output %q, want %q", buf.String(), want)
	}
}

func TestWriteVTT_MultiLineCue(t *testing.T) {
	var buf bytes.Buffer
	segs := []Segment{{Start: 0.0, End: 3.0, Text: "first part.\n\nsecond part"}}
	if err := WriteVTT(&buf, segs); err != nil {
		t.Fatalf("WriteVTT: %v", err)
	}
	// A blank line ends a cue, so paragraph breaks must collapse to a single
	// newline inside the body.
	want := "WEBVTT\n\n00:00:00.000 --> 00:00:03.000\nfirst part.\nsecond part\n\n"
	if buf.String() != want {
		t.Errorf("WriteVTT output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteSRT_MultiLineCue(t *testing.T) {
	var buf bytes.Buffer
	segs := []Segment{{Start: 0.0, End: 3.0, Text: "first part.\n\nsecond part"}}
	if err := WriteSRT(&buf, segs); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:03,000\nfirst part.\nsecond part\n\n"
	if buf.String() != want {
		t.Errorf("WriteSRT output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, writerSegs); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(got.Segments))
	}
	if got.Segments[0] != writerSegs[0] || got.Segments[1] != writerSegs[1] {
		t.Errorf("round trip mismatch: %+v", got.Segments)
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"segments":[]}` {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestTimestamps(t *testing.T) {
	if got := hms(3661.9); got != "01:01:01" {
		t.Errorf("hms(3661.9) = %q", got)
	}
	if got := hms(-1); got != "00:00:00" {
		t.Errorf("hms(-1) = %q", got)
	}
	if got := srtTimestamp(2.5); got != "00:00:02,500" {
		t.Errorf("srtTimestamp(2.5) = %q", got)
	}
	if got := vttTimestamp(3599.9994); got != "00:59:59.999" {
		t.Errorf("vttTimestamp(3599.9994) = %q", got)
	}
	if got := vttTimestamp(3600.0); got != "01:00:00.000" {
		t.Errorf("vttTimestamp(3600) = %q", got)
	}
}
