package acoustic

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/yinkev/medasr-go/internal/mathutil"
)

// CommandModel runs acoustic inference in an external process, one invocation
// per chunk. The process receives raw PCM16LE on stdin and must print a JSON
// object {"logits": [[...], ...]} with one row per frame. This keeps the
// native inference runtime (Python, ONNX, whatever serves the weights) out of
// this binary's address space.
type CommandModel struct {
	argv          []string
	vocabSize     int
	blankToken    string
	frameDuration float64
}

// NewCommandModel builds a CommandModel. argv is the command and its
// arguments; vocabSize, blankToken, and frameDuration must match the model
// the command serves.
func NewCommandModel(argv []string, vocabSize int, blankToken string, frameDuration float64) (*CommandModel, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("acoustic: empty inference command")
	}
	if vocabSize <= 0 {
		return nil, fmt.Errorf("acoustic: vocab size must be positive, got %d", vocabSize)
	}
	if blankToken == "" {
		return nil, fmt.Errorf("acoustic: blank token is required")
	}
	if frameDuration <= 0 {
		frameDuration = DefaultFrameDuration
	}
	return &CommandModel{
		argv:          argv,
		vocabSize:     vocabSize,
		blankToken:    blankToken,
		frameDuration: frameDuration,
	}, nil
}

func (m *CommandModel) VocabSize() int         { return m.vocabSize }
func (m *CommandModel) BlankToken() string     { return m.blankToken }
func (m *CommandModel) FrameDuration() float64 { return m.frameDuration }

// Infer runs one inference subprocess over samples. Cancellation of ctx kills
// the subprocess.
func (m *CommandModel) Infer(ctx context.Context, samples []float64) (mathutil.Mat, error) {
	pcm := make([]byte, len(samples)*2)
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(v*32767)))
	}

	cmd := exec.CommandContext(ctx, m.argv[0], m.argv[1:]...)
	cmd.Stdin = bytes.NewReader(pcm)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("acoustic: inference command: %w: %s", err, stderr.String())
		}
		return nil, fmt.Errorf("acoustic: inference command: %w", err)
	}

	return parseLogits(out, m.vocabSize)
}

// parseLogits decodes the inference command's JSON output and checks every
// row against the expected width.
func parseLogits(data []byte, vocabSize int) (mathutil.Mat, error) {
	var payload struct {
		Logits [][]float64 `json:"logits"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("acoustic: parse inference output: %w", err)
	}
	for i, row := range payload.Logits {
		if len(row) != vocabSize {
			return nil, fmt.Errorf("acoustic: inference row %d has %d columns, expected %d", i, len(row), vocabSize)
		}
	}
	return mathutil.Mat(payload.Logits), nil
}
