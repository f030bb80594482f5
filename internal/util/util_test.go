package util

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRetry(t *testing.T) {
	attempts := 0
	targetAttempts := 3

	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		if attempts < targetAttempts {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry returned unexpected error: %v", err)
	}
	if attempts != targetAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, targetAttempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	err := Retry(context.Background(), maxAttempts, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("Retry should return error when all attempts fail")
	}
	if attempts != maxAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, maxAttempts)
	}
}

func TestRoundSignificant(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"0.123456", 4, "0.1235"},
		{"123456", 4, "123500"},
		{"-0.0012345", 2, "-0.0012"},
		{"1.5", 4, "1.5"},
		{"0", 4, "0"},
	}
	for _, c := range cases {
		got := RoundSignificant(decimal.RequireFromString(c.in), c.n)
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("RoundSignificant(%s, %d) = %s, want %s", c.in, c.n, got, c.want)
		}
	}
}

func TestSmartRound(t *testing.T) {
	got := SmartRound(decimal.NewFromInt(1550).Div(decimal.NewFromInt(15)))
	if !got.Equal(decimal.RequireFromString("103.3333")) {
		t.Errorf("SmartRound(1550/15) = %s, want 103.3333", got)
	}
	got = SmartRound(decimal.RequireFromString("12345.678912"))
	if !got.Equal(decimal.RequireFromString("12345.6789")) {
		t.Errorf("SmartRound(12345.678912) = %s, want 12345.6789", got)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWriter(&buf, "debug", "text")
	log.Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("text handler output = %q", buf.String())
	}

	buf.Reset()
	log = NewLoggerWriter(&buf, "warn", "json")
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info message logged at warn level: %q", buf.String())
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Error("unknown level should default to info")
	}
}
