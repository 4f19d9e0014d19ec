package openaicompat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/anschmieg/gpt-cli/pkg/api"
	"github.com/anschmieg/gpt-cli/pkg/debug"
)

// MaxFrameSize bounds a single SSE frame. Larger frames end the stream with
// an error.
const MaxFrameSize = 1 << 20

const doneSentinel = "[DONE]"

// ParseSSEStream turns a Chat Completions SSE body into a lazy sequence of
// text fragments.
//
// SSE format expected:
//
//	data: {"choices":[{"delta":{"content":"Hel"}}]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Frames are separated by a blank line; only "data:" lines are read. Each
// payload yields choices[0].delta.content, or choices[0].message.content
// when the delta is absent. Empty fragments, invalid JSON and payloads
// without text are skipped. A payload of [DONE] ends the sequence. Bytes
// left over when the body ends are parsed as a final frame.
//
// The sequence can be ranged over once; later traversals yield nothing.
// The body is closed exactly once, whether the stream ends, hits [DONE],
// fails, or the consumer stops early. A read failure is yielded as the
// final element with an empty fragment.
func ParseSSEStream(body io.ReadCloser) iter.Seq2[string, error] {
	if body == nil || body == http.NoBody {
		return func(func(string, error) bool) {}
	}

	var consumed atomic.Bool
	var closeOnce sync.Once
	release := func() {
		closeOnce.Do(func() { body.Close() })
	}

	return func(yield func(string, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		defer release()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxFrameSize)
		scanner.Split(splitFrames)

		for scanner.Scan() {
			for _, payload := range framePayloads(scanner.Bytes()) {
				if payload == doneSentinel {
					return
				}
				fragment, ok := extractFragment(payload)
				if !ok {
					continue
				}
				if !yield(fragment, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				yield("", api.NewProtocolError("SSE frame exceeds maximum size"))
				return
			}
			yield("", api.NewNetworkError(err))
		}
	}
}

// splitFrames is a bufio.SplitFunc that yields one SSE frame per token. The
// delimiter is a blank line ("\n\n" or "\r\n\r\n"). At EOF any remaining
// bytes form a final frame. Tokens are raw bytes, so a multi-byte UTF-8
// sequence split across reads is reassembled before decoding.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i, n := frameBoundary(data); i >= 0 {
		return i + n, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func frameBoundary(data []byte) (index, width int) {
	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf, 4
	default:
		return lf, 2
	}
}

// framePayloads returns the trimmed payload of every "data:" line in frame.
func framePayloads(frame []byte) []string {
	var payloads []string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payloads = append(payloads, strings.TrimSpace(rest))
	}
	return payloads
}

// extractFragment decodes one payload and reports whether it carried a
// non-empty text fragment.
func extractFragment(payload string) (string, bool) {
	var chunk ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		debug.Log("streaming", "skipping malformed SSE chunk",
			"error", err.Error(),
			"data", debug.Truncate(payload, 200),
		)
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}

	choice := chunk.Choices[0]
	var content any
	switch {
	case choice.Delta != nil && choice.Delta.Content != nil:
		content = choice.Delta.Content
	case choice.Message != nil:
		content = choice.Message.Content
	}

	text, ok := content.(string)
	if !ok || text == "" {
		return "", false
	}
	debug.Trace("streaming", "sse fragment", "bytes", len(text))
	return text, true
}
