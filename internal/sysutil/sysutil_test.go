package sysutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	for in, want := range map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		" DEBUG ":   zerolog.DebugLevel,
		"warning":   zerolog.WarnLevel,
		"Warn":      zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"panic":     zerolog.PanicLevel,
		"":          zerolog.InfoLevel,
		"trace":     zerolog.InfoLevel,
		"disabled":  zerolog.InfoLevel,
		"verbose!!": zerolog.InfoLevel,
	} {
		if got := SetLogLevel(in); got != want || zerolog.GlobalLevel() != want {
			t.Fatalf("SetLogLevel(%q) = %v (global %v); want %v", in, got, zerolog.GlobalLevel(), want)
		}
	}
}

func TestIsTruthy(t *testing.T) {
	for v, want := range map[string]bool{
		"1": true, "true": true, " TRUE ": true, "t": true, "yes": true, "Y": true, "on": true,
		"": false, "0": false, "false": false, "no": false, "off": false, "maybe": false,
	} {
		if IsTruthy(v) != want {
			t.Fatalf("IsTruthy(%q) = %v; want %v", v, !want, want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{" ", "\t"}, ""},
		{[]string{"", "  v1.2.0 ", "dev"}, "  v1.2.0 "},
		{[]string{"ldflags", "dev"}, "ldflags"},
	}
	for _, tc := range cases {
		if got := FirstNonEmpty(tc.in...); got != tc.want {
			t.Fatalf("FirstNonEmpty(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSetupLogger_JSONAndPretty(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	var buf bytes.Buffer
	l := SetupLogger(&buf, "warn", false)
	l.Info().Msg("hidden")
	l.Warn().Str("chat_id", "c1").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"chat_id":"c1"`) || !strings.Contains(out, `"time"`) {
		t.Fatalf("json log = %q", out)
	}

	buf.Reset()
	l = SetupLogger(&buf, "debug", true)
	l.Debug().Msg("pretty line")
	if out := buf.String(); strings.HasPrefix(out, "{") || !strings.Contains(out, "pretty line") {
		t.Fatalf("console log = %q", out)
	}
}

func TestOpenLogFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "dashboard.log")
	f, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	_, _ = f.WriteString("line\n")
	_ = f.Close()

	f, err = OpenLogFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_, _ = f.WriteString("line\n")
	_ = f.Close()
	if b, _ := os.ReadFile(path); string(b) != "line\nline\n" {
		t.Fatalf("file must be appended, got %q", b)
	}
}
