package logx

import (
	"bytes"
	"testing"
)

func TestRedactingWriter_Basic(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRedactingWriter(&buf, []string{"s3cr3t-salt", "client-secret"})

	rw.Write([]byte("config: salt=s3cr3t-salt auth=client-secret done"))
	rw.Flush()

	got := buf.String()
	want := "config: salt=[REDACTED] auth=[REDACTED] done"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRedactingWriter_WriteBoundary(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRedactingWriter(&buf, []string{"SALTVALUE"})

	rw.Write([]byte("prefix SALT"))
	rw.Write([]byte("VALUE suffix"))
	rw.Flush()

	got := buf.String()
	want := "prefix [REDACTED] suffix"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRedactingWriter_NoSecrets(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRedactingWriter(&buf, []string{""})

	rw.Write([]byte("passthrough"))
	rw.Flush()

	if got := buf.String(); got != "passthrough" {
		t.Fatalf("got %q, want %q", got, "passthrough")
	}
}

func TestRedactingWriter_RepeatedMatches(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRedactingWriter(&buf, []string{"AAA"})

	rw.Write([]byte("AAA then AAA again"))
	rw.Flush()

	got := buf.String()
	want := "[REDACTED] then [REDACTED] again"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
