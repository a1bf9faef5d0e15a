// Package sse reads Server-Sent Events frames from a gateway response body.
//
// The reader is line oriented: every "data:" line is a frame of its own and
// blank lines carry no meaning. Gateway streams put exactly one JSON document
// on each data line, so multi-line data fields are not joined.
//
// This package does NOT provide SSE writer or server capabilities.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// DoneSentinel is the data payload that terminates a stream.
const DoneSentinel = "[DONE]"

// Frame is a single data line from the stream.
type Frame struct {
	// Event is the type named by the most recent "event:" line, if any.
	// It is consumed by the frame that follows it.
	Event string

	// Data is the trimmed payload after "data:". It is never empty.
	Data string
}

// Reader yields data frames from a source io.Reader. When constructed with
// NewTeeReader every raw line is also written verbatim to a destination.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
type Reader struct {
	scanner *bufio.Scanner
	dest    io.Writer

	event string
	done  bool
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, nil)
}

// NewTeeReader returns a Reader over src that copies every raw line to dest.
// A nil dest disables the copy.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		scanner: scanner,
		dest:    dest,
	}
}

// Next blocks until the next data frame is available. It returns nil, nil once
// the source is exhausted or the [DONE] terminator has been read; no further
// lines are consumed after the terminator.
func (r *Reader) Next() (*Frame, error) {
	if r.done {
		return nil, nil
	}

	for r.scanner.Scan() {
		raw := r.scanner.Text()

		if r.dest != nil {
			// bufio.Scanner strips the newline so it is reinserted here.
			if _, err := io.WriteString(r.dest, raw+"\n"); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if after, ok := strings.CutPrefix(line, "event:"); ok {
			r.event = strings.TrimSpace(after)
			continue
		}

		after, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// Comments, id:, retry: and anything unrecognised.
			continue
		}

		data := strings.TrimSpace(after)
		if data == DoneSentinel {
			r.done = true
			return nil, nil
		}
		if data == "" {
			continue
		}

		frame := &Frame{Event: r.event, Data: data}
		r.event = ""
		return frame, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	r.done = true
	return nil, nil
}
