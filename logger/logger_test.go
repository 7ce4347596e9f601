package logger

import (
	"bytes"
	"log"
	"testing"
)

func TestDefaultLoggerFormatsKeyValues(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	l := Default("conf")
	l.Info("loading source", "source_type", "file", "priority", 20)

	got := buf.String()
	want := "[INFO] conf | loading source source_type=file priority=20"
	if !bytes.Contains([]byte(got), []byte(want)) {
		t.Fatalf("got %q, want it to contain %q", got, want)
	}
}

func TestDefaultLoggerDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	Default("conf").Error("boom", "orphan")

	if !bytes.Contains(buf.Bytes(), []byte("boom orphan")) {
		t.Fatalf("dangling key must still be printed, got %q", buf.String())
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	l := Nop()
	l.Debug("a")
	l.Info("b")
	l.Error("c")

	if buf.Len() != 0 {
		t.Fatalf("nop logger wrote output: %q", buf.String())
	}
}
