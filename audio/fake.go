package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sayso/encoder"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays fixed PCM through a capture device. After the audio
// runs out the device keeps delivering silence until stopped, which lets
// end-of-speech detection fire the way it would on a live microphone.
type FakeContext struct {
	pcm      []byte
	realtime bool
}

func NewFakeContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

// LoadWAV reads a 16 kHz mono PCM16 WAV file and strips its header.
func LoadWAV(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < WAVHeaderSize || string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("%s: not a WAV file", path)
	}
	return data[WAVHeaderSize:], nil
}

// Realtime reports whether captures are paced at the real sample rate.
func (f *FakeContext) Realtime() bool { return f.realtime }

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime}, nil
}

type FakeCapture struct {
	pcm      []byte
	realtime bool

	mu      sync.Mutex
	cb      DataCallback
	stopCh  chan struct{}
	done    chan struct{}
	starts  int
	running bool
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

// Starts reports how many times Start was called.
func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeCapture) emit(chunk []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	}
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return fmt.Errorf("fake capture already running")
	}
	f.running = true
	f.starts++
	f.stopCh = make(chan struct{})
	f.done = make(chan struct{})
	stop, done := f.stopCh, f.done
	f.mu.Unlock()

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	interval := time.Millisecond
	if f.realtime {
		interval = time.Duration(fakeFrameSize) * time.Second / encoder.SampleRate
	}

	go func() {
		defer close(done)
		silence := make([]byte, chunkBytes)
		pos := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				f.emit(chunk)
				pos = end
			} else {
				f.emit(silence)
			}
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	stop, done := f.stopCh, f.done
	f.mu.Unlock()

	close(stop)
	<-done
}

func (f *FakeCapture) Close() { f.Stop() }
