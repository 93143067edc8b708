package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

// RecognitionData is one completed recognition request.
type RecognitionData struct {
	RequestID  string
	Provider   string
	Status     string
	Candidates int
	AudioS     float64
	EncodeMs   float64
	DNSMs      float64
	TCPMs      float64
	TLSMs      float64
	TTFBMs     float64
	DownloadMs float64
	TotalMs    float64
	ConnReused bool

	// as reported by the backend
	Confidence   float64
	BilledAudioS float64
	RateLimit    string
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: SAYSO_LOG_PATH environment variable
	if envPath := os.Getenv("SAYSO_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribeFile, err = os.OpenFile(filepath.Join(dir, "transcribe_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Recognition(d RecognitionData) {
	if !logReady {
		return
	}

	connStatus := "new"
	if d.ConnReused {
		connStatus = "reused"
	}

	diagLog.Info().
		Str("id", d.RequestID).
		Str("provider", d.Provider).
		Str("status", d.Status).
		Str("conn", connStatus).
		Int("candidates", d.Candidates).
		Float64("audio_s", d.AudioS).
		Float64("encode_ms", d.EncodeMs).
		Float64("dns_ms", d.DNSMs).
		Float64("tcp_ms", d.TCPMs).
		Float64("tls_ms", d.TLSMs).
		Float64("ttfb_ms", d.TTFBMs).
		Float64("download_ms", d.DownloadMs).
		Float64("total_ms", d.TotalMs).
		Float64("confidence", d.Confidence).
		Float64("billed_audio_s", d.BilledAudioS).
		Str("ratelimit", d.RateLimit).
		Msg("recognition")
}

// Dispatch records a share attempt. err is nil on success.
func Dispatch(route string, size int, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Warn().Err(err)
	}
	ev.Str("route", route).Int("bytes", size).Msg("dispatch")
}

func TranscriptText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func SessionStart(provider, lang string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Str("lang", lang).
		Msg("session_start")
}

func SessionEnd(recognitions, dispatches int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("recognitions", recognitions).
		Int("dispatches", dispatches).
		Msg("session_end")
}
