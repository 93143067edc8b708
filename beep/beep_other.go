//go:build !linux

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// One playback device stays open; the data callback drains whichever cue
// was queued last.
var (
	soundOnce sync.Once
	malgoCtx  *malgo.AllocatedContext
	device    *malgo.Device
	rendered  map[Cue][]byte

	playMu  sync.Mutex
	current atomic.Pointer[[]byte]
	pos     atomic.Uint32
)

func Init() {
	soundOnce.Do(func() {
		rendered = make(map[Cue][]byte, len(cues))
		for c, spec := range cues {
			rendered[c] = littleEndian(spec.samples())
		}

		var err error
		malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return
		}
		if err := initDevice(); err != nil {
			malgoCtx.Uninit()
			malgoCtx = nil
		}
	})
}

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{Data: fill})
	return err
}

func fill(out, _ []byte, frameCount uint32) {
	want := frameCount * 2
	n := uint32(0)
	if samples := current.Load(); samples != nil {
		p := pos.Load()
		if p < uint32(len(*samples)) {
			n = uint32(copy(out[:want], (*samples)[p:]))
			pos.Store(p + n)
		} else {
			current.Store(nil)
		}
	}
	clear(out[n:want])
}

func play(c Cue) {
	Init()
	if malgoCtx == nil {
		return
	}
	samples := rendered[c]

	playMu.Lock()
	defer playMu.Unlock()
	if device == nil {
		return
	}

	device.Stop()
	pos.Store(0)
	current.Store(&samples)
	if err := device.Start(); err != nil {
		// devices go stale across sleep/wake; rebuild once
		device.Uninit()
		if err := initDevice(); err != nil || device.Start() != nil {
			current.Store(nil)
		}
	}
}
