package providers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DefaultMaxLineBytes is the largest SSE line accepted when no limit is configured.
	DefaultMaxLineBytes = 1 << 20

	initialLineBuffer = 64 * 1024

	doneSentinel = "[DONE]"
)

// Normalizer turns an upstream SSE (or line-delimited) body into canonical deltas.
type Normalizer struct {
	// Provider names the upstream in errors
	Provider string

	// Parser converts each payload into deltas
	Parser ChunkParser

	// MaxLineBytes bounds a single line; zero means DefaultMaxLineBytes
	MaxLineBytes int
}

// Run reads body until a terminal is produced, the body ends or ctx is
// cancelled. It closes body before closing the returned channel.
//
// Every stream that is not cancelled ends with exactly one terminal delta:
// [DONE] or a provider terminal event yields DeltaDone, a clean EOF yields
// DeltaDone and a read error yields DeltaError.
func (n *Normalizer) Run(ctx context.Context, body io.ReadCloser) <-chan Delta {
	out := make(chan Delta, 16)

	go func() {
		defer close(out)
		defer body.Close()

		emit := func(d Delta) bool {
			select {
			case out <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}

		maxLine := n.MaxLineBytes
		if maxLine <= 0 {
			maxLine = DefaultMaxLineBytes
		}
		bufSize := initialLineBuffer
		if bufSize > maxLine {
			bufSize = maxLine
		}

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, bufSize), maxLine)

		for scanner.Scan() {
			payload, ok := dataPayload(scanner.Text())
			if !ok {
				continue
			}

			if strings.TrimSpace(payload) == doneSentinel {
				emit(DoneDelta())
				return
			}

			for _, d := range n.Parser.ParseChunk([]byte(payload)) {
				if !emit(d) {
					return
				}
				if d.Terminal() {
					return
				}
			}
		}

		if ctx.Err() != nil {
			return
		}

		if err := scanner.Err(); err != nil {
			msg := "failed to read stream"
			if errors.Is(err, bufio.ErrTooLong) {
				msg = fmt.Sprintf("stream line exceeds %d bytes", maxLine)
			}
			emit(ErrorDelta(&StreamError{Provider: n.Provider, Message: msg, Cause: err}))
			return
		}

		emit(DoneDelta())
	}()

	return out
}

// dataPayload extracts the payload of one upstream line. It reports false
// for lines that carry no payload: blank lines and SSE framing fields.
// Lines that are neither framing nor data are returned whole so that
// line-delimited JSON and plain-text upstreams still flow through.
func dataPayload(line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}

	if rest, ok := strings.CutPrefix(line, "data:"); ok {
		return strings.TrimPrefix(rest, " "), true
	}

	if isFramingField(line) {
		return "", false
	}

	return line, true
}

func isFramingField(line string) bool {
	if strings.HasPrefix(line, ":") {
		return true
	}
	for _, field := range []string{"event:", "id:", "retry:"} {
		if strings.HasPrefix(line, field) {
			return true
		}
	}
	return false
}
