package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// normalize reads a successful response body according to mode. The body
// is closed by the caller.
func normalize(httpResp *http.Response, resp *Response, mode gitlab.ResponseMode) error {
	switch mode.Kind {
	case gitlab.ResponseStreamed:
		delivered, err := stream(httpResp.Body, mode.EffectiveChunkSize(), mode.Sink)
		resp.Streamed = delivered

		if err != nil {
			return &gitlab.StreamError{URL: resp.URL, Delivered: delivered, Err: err}
		}

		return nil
	case gitlab.ResponseRaw:
		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &gitlab.StreamError{URL: resp.URL, Delivered: int64(len(body)), Err: err}
		}

		resp.Body = body

		return nil
	case gitlab.ResponseParsed:
		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &gitlab.StreamError{URL: resp.URL, Delivered: int64(len(body)), Err: err}
		}

		resp.Body = body

		return validateJSON(resp)
	default:
		return gitlab.ErrInvalidResponseMode
	}
}

// validateJSON accepts empty and octet-stream bodies unparsed.
func validateJSON(resp *Response) error {
	contentType := resp.Header.Get("Content-Type")
	if isOctetStream(contentType) || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	var raw json.RawMessage

	err := json.Unmarshal(resp.Body, &raw)
	if err != nil {
		return &gitlab.ParsingError{URL: resp.URL, ContentType: contentType, Err: err}
	}

	return nil
}

func isOctetStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(contentType, constants.ContentTypeOctetStream)
	}

	return mediaType == constants.ContentTypeOctetStream
}

// stream hands body to sink in chunks of exactly chunkSize bytes; only the
// last chunk may be shorter. A nil sink drains the body.
func stream(body io.Reader, chunkSize int, sink gitlab.ChunkSink) (int64, error) {
	buf := make([]byte, chunkSize)

	var delivered int64

	for {
		n, err := readChunk(body, buf)
		if n > 0 {
			if sink != nil {
				sinkErr := sink(buf[:n])
				if sinkErr != nil {
					return delivered, sinkErr
				}
			}

			delivered += int64(n)
		}

		if errors.Is(err, io.EOF) {
			return delivered, nil
		}

		if err != nil {
			return delivered, err
		}
	}
}

// readChunk fills buf unless the reader ends or fails first. Unlike
// io.ReadFull it reports the reader's own error, so a clean end is io.EOF
// and a truncated transfer keeps its error.
func readChunk(r io.Reader, buf []byte) (int, error) {
	filled := 0

	for filled < len(buf) {
		n, err := r.Read(buf[filled:])
		filled += n

		if err != nil {
			return filled, err
		}
	}

	return filled, nil
}

// errorFromResponse builds the typed error for a final non-2xx response.
func errorFromResponse(method string, httpResp *http.Response, resp *Response) error {
	reason := reasonPhrase(httpResp)

	if isRedirect(httpResp.StatusCode) && !isSafeMethod(method) {
		location := httpResp.Header.Get("Location")
		if loc, err := httpResp.Location(); err == nil {
			location = loc.String()
		}

		return &gitlab.RedirectError{
			Method:     method,
			URL:        resp.URL,
			Location:   location,
			StatusCode: httpResp.StatusCode,
			Reason:     reason,
		}
	}

	return &gitlab.HTTPError{
		Method:     method,
		URL:        resp.URL,
		StatusCode: httpResp.StatusCode,
		Reason:     reason,
		Message:    gitlab.ParseErrorMessage(resp.Body),
		Body:       resp.Body,
	}
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}

	return reason
}

func isRedirect(status int) bool {
	return status >= http.StatusMultipleChoices && status < http.StatusBadRequest
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
