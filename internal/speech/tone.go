package speech

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// toneFade is the linear ramp applied to both ends of a tone to avoid clicks.
const toneFade = 5 * time.Millisecond

// synthTone renders a mono sine wave as signed 16-bit little-endian PCM.
func synthTone(freq float64, d time.Duration, volume float64, sampleRate int) ([]byte, error) {
	if freq <= 0 || d <= 0 {
		return nil, fmt.Errorf("invalid tone %.0fHz for %s", freq, d)
	}
	volume = math.Max(0, math.Min(1, volume))

	n := int(d.Seconds() * float64(sampleRate))
	fade := int(toneFade.Seconds() * float64(sampleRate))
	if fade*2 > n {
		fade = n / 2
	}

	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		amp := volume
		switch {
		case i < fade:
			amp *= float64(i) / float64(fade)
		case i >= n-fade:
			amp *= float64(n-1-i) / float64(fade)
		}
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return pcm, nil
}
