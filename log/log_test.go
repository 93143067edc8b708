package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestResolveDir(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name, flag, env, want string
	}{
		{"flag absolute", "/tmp/mylog", "", "/tmp/mylog"},
		{"flag relative", "logs", "", filepath.Join(wd, "logs")},
		{"flag beats env", "/tmp/flag", "/tmp/env", "/tmp/flag"},
		{"env absolute", "", "/tmp/sayso-env-log", "/tmp/sayso-env-log"},
		{"env relative", "", "envlogs", filepath.Join(wd, "envlogs")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SAYSO_LOG_PATH", tt.env)
			got, err := ResolveDir(tt.flag)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("SAYSO_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "sayso") {
		t.Errorf("default dir %q does not mention sayso", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"diagnostics_log.txt", "transcribe_log.txt"} {
		if _, err := os.Stat(filepath.Join(tmp, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestTranscriptText(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	TranscriptText("hello world")

	line := readFile(t, filepath.Join(tmp, "transcribe_log.txt"))
	if !strings.Contains(line, "hello world") {
		t.Errorf("transcribe_log.txt missing text, got: %q", line)
	}
	// format: "2006-01-02 15:04:05\t[pid]\ttext\n"
	if strings.Count(line, "\t") != 2 {
		t.Errorf("expected two tabs, got: %q", line)
	}
}

func TestDiagnosticEvents(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	SessionStart("groq", "en")
	Recognition(RecognitionData{
		RequestID: "abc", Provider: "groq", Status: "ok", Candidates: 1, AudioS: 1.5,
		DNSMs: 12.5, DownloadMs: 3, Confidence: 0.9, BilledAudioS: 1.4, RateLimit: "9/10",
	})
	Dispatch("fallback", 9, nil)
	Dispatch("direct", 9, errors.New("exec failed"))
	Warnf("recognition_busy %d", 1)
	SessionEnd(1, 1)

	out := readFile(t, filepath.Join(tmp, "diagnostics_log.txt"))
	for _, want := range []string{
		"session_start", "provider=groq",
		"recognition", "id=abc", "candidates=1",
		"dns_ms=12.5", "download_ms=3", "confidence=0.9", "billed_audio_s=1.4", "ratelimit=9/10",
		"dispatch", "route=fallback", "route=direct", "exec failed",
		"recognition_busy 1",
		"session_end",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostics log missing %q:\n%s", want, out)
		}
	}
}

func TestNoopBeforeInit(t *testing.T) {
	setupLogDir(t)
	// none of these may panic while the log is closed
	Info("x")
	Errorf("x %d", 1)
	TranscriptText("x")
	Dispatch("direct", 1, nil)
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
