package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/starfederation/datastar-go/datastar"
)

// eventWriter sends named events through the datastar generator. Comments
// have no generator API and are written directly.
type eventWriter struct {
	sse *datastar.ServerSentEventGenerator
	w   io.Writer
	rc  *http.ResponseController
	buf bytes.Buffer
}

// newEventWriter commits the stream headers. It fails before writing
// anything when w cannot flush.
func newEventWriter(w http.ResponseWriter, r *http.Request) (*eventWriter, error) {
	if !canFlush(w) {
		return nil, ErrStreamingUnsupported
	}
	return &eventWriter{
		sse: datastar.NewSSE(w, r),
		w:   w,
		rc:  http.NewResponseController(w),
	}, nil
}

// canFlush walks Unwrap chains the way http.ResponseController does.
func canFlush(w http.ResponseWriter) bool {
	for {
		switch w.(type) {
		case http.Flusher, interface{ FlushError() error }:
			return true
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}
		w = u.Unwrap()
	}
}

// Event writes one named event. id is omitted when zero.
func (e *eventWriter) Event(name string, id int64, data any) error {
	e.buf.Reset()
	enc := json.NewEncoder(&e.buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return err
	}
	line := string(bytes.TrimRight(e.buf.Bytes(), "\n"))

	var opts []datastar.SSEEventOption
	if id > 0 {
		opts = append(opts, datastar.WithSSEEventId(strconv.FormatInt(id, 10)))
	}
	return e.sse.Send(datastar.EventType(name), []string{line}, opts...)
}

// Comment writes a protocol comment, ignored by EventSource clients.
func (e *eventWriter) Comment(text string) error {
	if _, err := io.WriteString(e.w, ": "+text+"\n\n"); err != nil {
		return err
	}
	return e.rc.Flush()
}
