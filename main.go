package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"sayso/audio"
	"sayso/beep"
	"sayso/dictation"
	"sayso/doctor"
	"sayso/encoder"
	"sayso/hotkey"
	"sayso/log"
	"sayso/permission"
	"sayso/recognizer"
	"sayso/share"
	"sayso/shutdown"
)

var version = "dev"

// cueListener plays the start and end ticks around listening.
type cueListener struct {
	recognizer.Listener
}

func (c cueListener) Listening(prompt string) {
	beep.PlayStart()
	c.Listener.Listening(prompt)
}

func (c cueListener) Stopped() {
	beep.PlayEnd()
	c.Listener.Stopped()
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func newBackend(cfg config) (recognizer.Backend, error) {
	if cfg.fake != "" {
		return recognizer.NewFake(nil, strings.Split(cfg.fake, "|")...), nil
	}
	return recognizer.New(recognizer.ConfigFromEnv())
}

// openAudio returns the audio host: the replayed WAV in test mode, the
// sound server otherwise. Endpointing runs on wall-clock ticks, so a WAV
// headed for a real backend is replayed at real speed; only canned -fake
// answers may take it as fast as it goes.
func openAudio(cfg config) (audio.Context, error) {
	if cfg.testWAV != "" {
		pcm, err := audio.LoadWAV(cfg.testWAV)
		if err != nil {
			return nil, err
		}
		return audio.NewFakeContext(pcm, cfg.fake == ""), nil
	}
	return audio.NewContext()
}

func pickDevice(actx audio.Context, cfg config) *audio.DeviceInfo {
	switch {
	case cfg.device != "":
		dev, err := audio.FindDevice(actx, cfg.device)
		if err != nil || dev == nil {
			log.Warnf("device %q not found, using default", cfg.device)
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", cfg.device)
		}
		return dev
	case cfg.setup:
		dev, err := audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			return nil
		}
		return dev
	}
	return nil
}

func deviceLineText(dev *audio.DeviceInfo) string {
	if dev == nil {
		return "mic: system default"
	}
	if audio.IsBluetooth(dev.Name) {
		return "mic: " + dev.Name + " (headset mic, expect lower accuracy)"
	}
	return "mic: " + dev.Name
}

func modeLineText(svc *recognizer.Service, cfg config) string {
	lang := cfg.lang
	if lang == "" {
		lang = "auto"
	}
	return fmt.Sprintf("[flac | %s (%s)]", svc.Name(), lang)
}

func run(args []string) int {
	if err := loadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cfg, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if cfg.version {
		fmt.Printf("sayso %s\n", version)
		return 0
	}

	logPath, err := log.ResolveDir(cfg.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	if cfg.crash {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if cfg.doctor {
		return doctor.Run(cfg.lang)
	}

	if !cfg.beep || cfg.testWAV != "" {
		beep.Disable()
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	// a missing backend or microphone is not fatal: requests are refused
	// and logged until the user fixes the setup
	backend, err := newBackend(cfg)
	if err != nil {
		log.Warnf("backend: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var capture audio.CaptureDevice
	var device *audio.DeviceInfo
	actx, err := openAudio(cfg)
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: audio unavailable: %v\n", err)
	} else {
		defer actx.Close()
		device = pickDevice(actx, cfg)
		capture, err = actx.NewCapture(device, audio.CaptureConfig{
			SampleRate: encoder.SampleRate,
			Channels:   encoder.Channels,
		})
		if err != nil {
			log.Errorf("capture device init error: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: no microphone: %v\n", err)
			capture = nil
		} else {
			defer capture.Close()
			log.Info("recording_device: " + capture.DeviceName())
		}
	}

	svc := recognizer.NewService(backend, capture)

	var perms dictation.Permissions
	if actx != nil {
		perms = permission.NewChecker(actx)
	}
	dcfg := dictation.Config{Language: cfg.lang, MaxResults: cfg.maxResults}

	log.SessionStart(svc.Name(), cfg.lang)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recognitions, dispatches int
	if cfg.headless() {
		sink := newPrintSink(os.Stdout)
		signals, stopSignals := shutdown.Signals()
		defer stopSignals()
		h := headless{svc: svc, perms: perms, cfg: dcfg, signals: signals}
		if cfg.testWAV != "" {
			h.sharer = dryRunSharer{out: sink}
		} else {
			h.sharer = share.NewWhatsApp()
		}
		sink.printf("MODE: %s", modeLineText(svc, cfg))
		recognitions, dispatches = h.run(ctx, os.Stdin, sink, func(l recognizer.Listener) {
			svc.SetListener(cueListener{l})
		})
	} else {
		recognitions, dispatches = runTUI(ctx, cancel, cfg, svc, perms, dcfg, device)
	}

	log.SessionEnd(recognitions, dispatches)
	return 0
}

func runTUI(ctx context.Context, cancel context.CancelFunc, cfg config, svc *recognizer.Service, perms dictation.Permissions, dcfg dictation.Config, device *audio.DeviceInfo) (int, int) {
	go beep.Init()

	actions := make(chan action)
	p := NewTUIProgram(actions)
	sink := tuiSink{p: p}
	svc.SetListener(cueListener{sink})
	ctrl := dictation.New(dcfg, svc, share.NewWhatsApp(), sink, sink, perms)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		cancel()
	}()

	sink.ModeLine(modeLineText(svc, cfg))
	sink.DeviceLine(deviceLineText(device))
	if err := svc.Available(); err != nil {
		sink.Notify(err.Error())
	}

	var trig *hotkey.Trigger
	if cfg.hotkey {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Warnf("hotkey register error: %v", err)
			sink.Notify("Global hotkey unavailable: " + err.Error())
		} else {
			defer hk.Unregister()
			trig = hotkey.NewTrigger(hk, longPress)
			defer trig.Close()
			go forwardTrigger(ctx, trig, actions)
		}
	}

	signals, stopSignals := shutdown.Signals()
	defer stopSignals()

	l := &loop{
		ctrl:     ctrl,
		notifier: sink,
		copy:     defaultCopy,
		afterResult: func(recognizer.Result) {
			if trig != nil {
				trig.Reset()
			}
		},
	}
	l.run(ctx, actions, ctrl.BootstrapPermission(ctx), signals)

	p.Quit()
	<-done
	return ctrl.Stats()
}
