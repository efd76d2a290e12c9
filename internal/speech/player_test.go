package speech

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// buildWAV wraps PCM in a minimal RIFF container with an extra chunk
// before the data chunk.
func buildWAV(pcm []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+8+3+1+len(pcm)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(ChannelCount))
	binary.Write(&b, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(SampleRate*2))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint16(BitDepth))

	// Odd-sized chunk, padded to a word boundary.
	b.WriteString("LIST")
	binary.Write(&b, binary.LittleEndian, uint32(3))
	b.Write([]byte{1, 2, 3, 0})

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

func TestExtractPCM(t *testing.T) {
	pcm := []byte{10, 20, 30, 40, 50, 60}
	got, err := extractPCM(buildWAV(pcm))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Fatalf("expected %v, got %v", pcm, got)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte("RIFF")},
		{"not riff", append([]byte("JUNK0000WAVE"), make([]byte, 40)...)},
		{"no data chunk", buildWAV(nil)[:44]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := extractPCM(tt.data); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSynthTone(t *testing.T) {
	pcm, err := synthTone(440, 100*time.Millisecond, 0.5, SampleRate)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}

	wantSamples := SampleRate / 10
	if len(pcm) != wantSamples*2 {
		t.Fatalf("expected %d bytes, got %d", wantSamples*2, len(pcm))
	}

	sample := func(i int) int16 {
		return int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	if sample(0) != 0 {
		t.Fatalf("expected fade-in to start at silence, got %d", sample(0))
	}
	if sample(wantSamples-1) != 0 {
		t.Fatalf("expected fade-out to end at silence, got %d", sample(wantSamples-1))
	}

	var peak int16
	for i := 0; i < wantSamples; i++ {
		if s := sample(i); s > peak {
			peak = s
		}
	}
	limit := int16(0.5 * math.MaxInt16)
	if peak > limit || peak < limit*9/10 {
		t.Fatalf("expected peak near %d, got %d", limit, peak)
	}
}

func TestSynthToneRejectsInvalid(t *testing.T) {
	if _, err := synthTone(0, time.Second, 0.5, SampleRate); err == nil {
		t.Fatal("expected error for zero frequency")
	}
	if _, err := synthTone(440, 0, 0.5, SampleRate); err == nil {
		t.Fatal("expected error for zero duration")
	}
}
