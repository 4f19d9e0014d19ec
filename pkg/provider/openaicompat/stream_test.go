package openaicompat

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/anschmieg/gpt-cli/pkg/api"
)

// trackingBody counts Close calls on top of an arbitrary reader.
type trackingBody struct {
	io.Reader
	closes int
}

func (b *trackingBody) Close() error {
	b.closes++
	return nil
}

func newBody(sse string) *trackingBody {
	return &trackingBody{Reader: strings.NewReader(sse)}
}

func deltaFrame(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

// collect ranges over the stream and returns fragments and the last error.
func collect(t *testing.T, body io.ReadCloser) ([]string, error) {
	t.Helper()
	var fragments []string
	var lastErr error
	for fragment, err := range ParseSSEStream(body) {
		if err != nil {
			lastErr = err
			continue
		}
		fragments = append(fragments, fragment)
	}
	return fragments, lastErr
}

func TestParseSSEStream_Concatenates(t *testing.T) {
	body := newBody(deltaFrame("Hel") + deltaFrame("lo") + deltaFrame(" world") + "data: [DONE]\n\n")

	fragments, err := collect(t, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(fragments, ""); got != "Hello world" {
		t.Errorf("concatenated = %q, want %q", got, "Hello world")
	}
	if body.closes != 1 {
		t.Errorf("body closed %d times, want 1", body.closes)
	}
}

func TestParseSSEStream_DoneStopsStream(t *testing.T) {
	body := newBody(deltaFrame("a") + "data: [DONE]\n\n" + deltaFrame("never"))

	fragments, _ := collect(t, body)
	if len(fragments) != 1 || fragments[0] != "a" {
		t.Errorf("fragments = %q, want [a]", fragments)
	}
	if body.closes != 1 {
		t.Errorf("body closed %d times, want 1", body.closes)
	}
}

func TestParseSSEStream_SkipsMalformed(t *testing.T) {
	sse := deltaFrame("good1") +
		"data: {not json\n\n" +
		"event: ping\n\n" +
		`data: {"choices":[]}` + "\n\n" +
		`data: {"choices":[{"delta":{"content":42}}]}` + "\n\n" +
		`data: {"choices":[{"delta":{"content":""}}]}` + "\n\n" +
		deltaFrame("good2")

	fragments, err := collect(t, newBody(sse))
	if err != nil {
		t.Fatalf("malformed lines must not raise: %v", err)
	}
	if len(fragments) != 2 || fragments[0] != "good1" || fragments[1] != "good2" {
		t.Errorf("fragments = %q, want [good1 good2]", fragments)
	}
}

func TestParseSSEStream_EmptyBodies(t *testing.T) {
	tests := []struct {
		name string
		body io.ReadCloser
	}{
		{"nil", nil},
		{"no body", http.NoBody},
		{"empty reader", newBody("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments, err := collect(t, tt.body)
			if err != nil || len(fragments) != 0 {
				t.Errorf("got %q, %v; want empty sequence", fragments, err)
			}
		})
	}
}

func TestParseSSEStream_FlushesUnterminatedFrame(t *testing.T) {
	sse := deltaFrame("first") + `data: {"choices":[{"delta":{"content":"last"}}]}`

	fragments, _ := collect(t, newBody(sse))
	if strings.Join(fragments, "|") != "first|last" {
		t.Errorf("fragments = %q, want [first last]", fragments)
	}
}

func TestParseSSEStream_MessageFallback(t *testing.T) {
	sse := `data: {"choices":[{"message":{"role":"assistant","content":"whole"}}]}` + "\n\n"

	fragments, _ := collect(t, newBody(sse))
	if len(fragments) != 1 || fragments[0] != "whole" {
		t.Errorf("fragments = %q, want [whole]", fragments)
	}
}

func TestParseSSEStream_CRLFAndMultipleDataLines(t *testing.T) {
	sse := "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\r\n\r\n" +
		": keep-alive\n" +
		"data:{\"choices\":[{\"delta\":{\"content\":\"y\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"z\"}}]}\n\n"

	fragments, _ := collect(t, newBody(sse))
	if strings.Join(fragments, "") != "xyz" {
		t.Errorf("fragments = %q, want x y z", fragments)
	}
}

func TestParseSSEStream_MultibyteAcrossReads(t *testing.T) {
	sse := deltaFrame("héllo ✓ 世界") + "data: [DONE]\n\n"
	body := &trackingBody{Reader: iotest.OneByteReader(strings.NewReader(sse))}

	fragments, err := collect(t, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fragments) != 1 || fragments[0] != "héllo ✓ 世界" {
		t.Errorf("fragments = %q", fragments)
	}
}

func TestParseSSEStream_EarlyExitReleasesOnce(t *testing.T) {
	body := newBody(deltaFrame("a") + deltaFrame("b") + deltaFrame("c"))
	seq := ParseSSEStream(body)

	for fragment := range seq {
		if fragment == "a" {
			break
		}
	}
	if body.closes != 1 {
		t.Errorf("body closed %d times after break, want 1", body.closes)
	}

	// Single traversal: a second range yields nothing and does not close again.
	var again int
	for range seq {
		again++
	}
	if again != 0 {
		t.Errorf("second traversal yielded %d fragments, want 0", again)
	}
	if body.closes != 1 {
		t.Errorf("body closed %d times, want 1", body.closes)
	}
}

func TestParseSSEStream_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	body := &trackingBody{Reader: io.MultiReader(strings.NewReader(deltaFrame("partial")), iotest.ErrReader(boom))}

	fragments, err := collect(t, body)
	if len(fragments) != 1 || fragments[0] != "partial" {
		t.Errorf("fragments = %q, want [partial]", fragments)
	}
	var pe *api.ProviderError
	if !errors.As(err, &pe) || pe.Code != api.CodeNetwork {
		t.Fatalf("err = %v, want network ProviderError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error should wrap the read failure")
	}
	if body.closes != 1 {
		t.Errorf("body closed %d times, want 1", body.closes)
	}
}

func TestParseSSEStream_FrameTooLarge(t *testing.T) {
	huge := "data: " + strings.Repeat("x", MaxFrameSize+10) + "\n\n"

	_, err := collect(t, newBody(huge))
	var pe *api.ProviderError
	if !errors.As(err, &pe) || pe.Code != api.CodeInvalidResponse {
		t.Errorf("err = %v, want invalid_response ProviderError", err)
	}
}

func TestSplitFrames(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		atEOF   bool
		advance int
		token   string
	}{
		{"incomplete", "data: x", false, 0, ""},
		{"lf boundary", "a\n\nb", false, 3, "a"},
		{"crlf boundary", "a\r\n\r\nb", false, 5, "a"},
		{"eof remainder", "tail", true, 4, "tail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advance, token, err := splitFrames([]byte(tt.data), tt.atEOF)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if advance != tt.advance || string(token) != tt.token {
				t.Errorf("splitFrames = (%d, %q), want (%d, %q)", advance, token, tt.advance, tt.token)
			}
		})
	}
}
