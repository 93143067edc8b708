package encoder

import (
	"encoding/binary"
	"time"
)

// Capture format shared by the recorder and the encoders: PCM16 mono.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	Format() string      // file extension sent to the backend
	ContentType() string // MIME type for raw uploads
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}

// Samples decodes little-endian PCM16 bytes. A trailing odd byte is dropped.
func Samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

// Duration converts a frame count at SampleRate to wall time.
func Duration(frames uint64) time.Duration {
	return time.Duration(frames) * time.Second / SampleRate
}
