package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type config struct {
	lang       string
	device     string
	setup      bool
	logPath    string
	tui        bool
	hotkey     bool
	beep       bool
	maxResults int
	doctor     bool
	testWAV    string
	fake       string
	version    bool
	crash      bool
}

// loadEnv reads .env from the working directory. Variables already set in
// the environment win.
func loadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var errs []error
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var c config
	fs := flag.NewFlagSet("sayso", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&c.lang, "lang", "en", "Language code for recognition (e.g., en, es, fr). Empty = auto-detect")
	fs.StringVar(&c.device, "device", "", "Use named microphone device")
	fs.BoolVar(&c.setup, "setup", false, "Select microphone device (otherwise uses system default)")
	fs.StringVar(&c.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&c.tui, "tui", true, "Run with terminal UI; false reads commands from stdin")
	fs.BoolVar(&c.hotkey, "hotkey", true, "Register the global Ctrl+Shift+Space push-to-talk key")
	fs.BoolVar(&c.beep, "beep", true, "Play audio cues when listening starts and stops")
	fs.IntVar(&c.maxResults, "max-results", 1, "Ranked candidates to request from the backend")
	fs.BoolVar(&c.doctor, "doctor", false, "Run system diagnostics and exit")
	fs.StringVar(&c.testWAV, "test", "", "Test mode: replay this WAV as the microphone (headless, stdin-driven)")
	fs.StringVar(&c.fake, "fake", "", "Answer every recognition with this text instead of calling a backend")
	fs.BoolVar(&c.version, "version", false, "Print version and exit")
	fs.BoolVar(&c.crash, "crash", false, "Trigger synthetic panic for testing crash logging")

	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if fs.NArg() > 0 {
		return c, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if c.maxResults < 1 {
		return c, fmt.Errorf("-max-results must be at least 1, got %d", c.maxResults)
	}
	c.lang = strings.ToLower(strings.TrimSpace(c.lang))
	return c, nil
}

// headless reports whether the session is driven from stdin.
func (c config) headless() bool {
	return c.testWAV != "" || !c.tui
}
