package gitlab

import (
	"fmt"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

// ResponseKind selects how a response body is delivered.
type ResponseKind int

const (
	// ResponseParsed reads the whole body and requires it to be JSON.
	ResponseParsed ResponseKind = iota
	// ResponseRaw reads the whole body and returns the bytes as is.
	ResponseRaw
	// ResponseStreamed hands the body to a sink in fixed-size chunks.
	ResponseStreamed
)

// String returns the kind name.
func (k ResponseKind) String() string {
	switch k {
	case ResponseParsed:
		return "parsed"
	case ResponseRaw:
		return "raw"
	case ResponseStreamed:
		return "streamed"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

// ChunkSink receives streamed chunks in order. Returning an error aborts
// the stream. The slice is reused after the call returns.
type ChunkSink func(chunk []byte) error

// ResponseMode is chosen per call. The zero value is Parsed.
type ResponseMode struct {
	Kind ResponseKind
	// ChunkSize applies to streamed responses. Zero means DefaultChunkSize.
	ChunkSize int
	// Sink receives streamed chunks. A nil sink drains the body.
	Sink ChunkSink
}

// DefaultChunkSize is the streamed chunk size used when none is given.
const DefaultChunkSize = constants.DefaultChunkSize

// Parsed returns the JSON mode.
func Parsed() ResponseMode {
	return ResponseMode{Kind: ResponseParsed}
}

// Raw returns the byte mode.
func Raw() ResponseMode {
	return ResponseMode{Kind: ResponseRaw}
}

// Streamed returns a chunked mode delivering to sink.
func Streamed(chunkSize int, sink ChunkSink) ResponseMode {
	return ResponseMode{Kind: ResponseStreamed, ChunkSize: chunkSize, Sink: sink}
}

// IsStreamed reports whether the body is delivered to a sink.
func (m ResponseMode) IsStreamed() bool {
	return m.Kind == ResponseStreamed
}

// EffectiveChunkSize returns the chunk size to read with.
func (m ResponseMode) EffectiveChunkSize() int {
	if m.ChunkSize == 0 {
		return DefaultChunkSize
	}

	return m.ChunkSize
}

// Validate checks the mode before a request is sent.
func (m ResponseMode) Validate() error {
	switch m.Kind {
	case ResponseParsed, ResponseRaw:
		return nil
	case ResponseStreamed:
		if m.ChunkSize < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidChunkSize, m.ChunkSize)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidResponseMode, m.Kind)
	}
}

// Binary returns m, or Raw when m is Parsed. Binary endpoints use it so
// a zero mode still yields the body bytes.
func (m ResponseMode) Binary() ResponseMode {
	if m.Kind == ResponseParsed {
		return Raw()
	}

	return m
}
