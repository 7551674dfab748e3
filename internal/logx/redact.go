package logx

import (
	"io"
	"sync"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

const redactedPlaceholder = "[REDACTED]"

// RedactingWriter wraps an io.Writer and replaces any occurrence of the
// configured secret values (server salt, OAuth client secret) with
// [REDACTED]. Uses Aho-Corasick for multi-pattern matching and buffers
// enough bytes to catch secrets that straddle Write boundaries.
type RedactingWriter struct {
	mu        sync.Mutex
	out       io.Writer
	matcher   aho.AhoCorasick
	active    bool
	maxSecret int
	buf       []byte
}

// NewRedactingWriter builds a RedactingWriter over out. Empty secret values
// are ignored; with no secrets the writer passes data through unmodified.
func NewRedactingWriter(out io.Writer, secrets []string) *RedactingWriter {
	var patterns []string
	maxLen := 0
	for _, s := range secrets {
		if s == "" {
			continue
		}
		patterns = append(patterns, s)
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}

	rw := &RedactingWriter{out: out, maxSecret: maxLen}
	if len(patterns) == 0 {
		return rw
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{})
	rw.matcher = builder.Build(patterns)
	rw.active = true
	return rw
}

// Write implements io.Writer. Trailing bytes that could be the start of a
// secret are held back until the next Write or Flush.
func (rw *RedactingWriter) Write(p []byte) (int, error) {
	if !rw.active {
		return rw.out.Write(p)
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.buf = append(rw.buf, p...)
	if err := rw.emit(false); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush drains the held-back tail, redacting any final matches.
func (rw *RedactingWriter) Flush() error {
	if !rw.active {
		return nil
	}
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.emit(true)
}

func (rw *RedactingWriter) emit(all bool) error {
	if len(rw.buf) == 0 {
		return nil
	}

	// Everything before safeEnd can be written out; the tail is retained in
	// case a secret continues into the next Write.
	safeEnd := len(rw.buf)
	if !all {
		safeEnd = len(rw.buf) - (rw.maxSecret - 1)
		if safeEnd <= 0 {
			return nil
		}
	}

	matches := rw.matcher.FindAll(string(rw.buf))

	var redacted []byte
	pos := 0
	consumed := safeEnd
	for _, m := range matches {
		if m.Start() < pos {
			continue
		}
		if m.Start() >= safeEnd && !all {
			break
		}
		redacted = append(redacted, rw.buf[pos:m.Start()]...)
		redacted = append(redacted, redactedPlaceholder...)
		pos = m.End()
		if m.End() > consumed {
			consumed = m.End()
		}
	}
	if pos < safeEnd {
		redacted = append(redacted, rw.buf[pos:safeEnd]...)
	}

	if len(redacted) > 0 {
		if _, err := rw.out.Write(redacted); err != nil {
			return err
		}
	}

	rest := make([]byte, len(rw.buf)-consumed)
	copy(rest, rw.buf[consumed:])
	rw.buf = rest
	return nil
}
