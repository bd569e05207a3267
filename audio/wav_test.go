package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// buildWAV constructs a minimal valid WAV file in memory.
func buildWAV(sampleRate uint32, bitsPerSample, numChannels uint16, samples []int16) []byte {
	var buf bytes.Buffer
	dataSize := uint32(len(samples) * 2)
	byteRate := sampleRate * uint32(numChannels) * uint32(bitsPerSample) / 8
	blockAlign := numChannels * bitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, numChannels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, bitsPerSample)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

func TestReadWAV_Valid(t *testing.T) {
	// 440Hz sine, 100 samples at 16kHz
	n := 100
	raw := make([]int16, n)
	for i := range raw {
		raw[i] = int16(16000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	samples, header, err := ReadWAV(bytes.NewReader(buildWAV(16000, 16, 1, raw)))
	if err != nil {
		t.Fatalf("ReadWAV error: %v", err)
	}

	if header.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", header.SampleRate)
	}
	if header.NumSamples != n {
		t.Errorf("NumSamples = %d, want %d", header.NumSamples, n)
	}
	if len(samples) != n {
		t.Fatalf("len(samples) = %d, want %d", len(samples), n)
	}
	for i := 0; i < n; i++ {
		want := float64(raw[i]) / 32768.0
		if math.Abs(samples[i]-want) > 1e-10 {
			t.Fatalf("samples[%d] = %f, want %f", i, samples[i], want)
		}
	}
}

func TestReadWAV_Duration(t *testing.T) {
	_, header, err := ReadWAV(bytes.NewReader(buildWAV(16000, 16, 1, make([]int16, 16000))))
	if err != nil {
		t.Fatalf("ReadWAV error: %v", err)
	}
	if math.Abs(header.Duration()-1.0) > 1e-9 {
		t.Errorf("Duration = %f, want 1.0", header.Duration())
	}
}

func TestReadWAV_WrongSampleRate(t *testing.T) {
	if _, _, err := ReadWAV(bytes.NewReader(buildWAV(44100, 16, 1, make([]int16, 10)))); err == nil {
		t.Fatal("expected error for 44.1kHz input")
	}
}

func TestReadWAV_Stereo(t *testing.T) {
	if _, _, err := ReadWAV(bytes.NewReader(buildWAV(16000, 16, 2, make([]int16, 10)))); err == nil {
		t.Fatal("expected error for stereo input")
	}
}

func TestReadWAV_NotRIFF(t *testing.T) {
	if _, _, err := ReadWAV(bytes.NewReader([]byte("JUNKJUNKJUNKJUNK"))); err == nil {
		t.Fatal("expected error for non-RIFF input")
	}
}

func TestDecodePCM16LE(t *testing.T) {
	data := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80, 0x01} // trailing odd byte
	samples := DecodePCM16LE(data)
	if len(samples) != 3 {
		t.Fatalf("len = %d, want 3", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("samples[0] = %f, want 0", samples[0])
	}
	if math.Abs(samples[1]-32767.0/32768.0) > 1e-12 {
		t.Errorf("samples[1] = %f, want ~1", samples[1])
	}
	if samples[2] != -1.0 {
		t.Errorf("samples[2] = %f, want -1", samples[2])
	}
}
