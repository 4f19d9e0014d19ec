// Package integration provides end-to-end tests for gpt-cli.
//
// Tests run the engine with the real adapters against the mock backend,
// started in-process using net/http/httptest.
package integration

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/anschmieg/gpt-cli/pkg/engine"
	"github.com/anschmieg/gpt-cli/pkg/mockserver"
	"github.com/anschmieg/gpt-cli/pkg/observability"
	"github.com/anschmieg/gpt-cli/pkg/provider"
	"github.com/anschmieg/gpt-cli/pkg/provider/builtin"
)

// apiKey is the token the mock backend requires.
const apiKey = "sk-integration"

// testEnv holds the shared mock backend for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the mock backend used by the tests.
type TestEnvironment struct {
	MockBackend *httptest.Server
}

// TestMain starts the mock backend before running tests.
func TestMain(m *testing.M) {
	testEnv = &TestEnvironment{
		MockBackend: httptest.NewServer(observability.MetricsMiddleware(mockserver.New(mockserver.Options{
			APIKey:         apiKey,
			FramesPerWrite: 3,
		}))),
	}
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// Teardown stops the mock backend.
func (env *TestEnvironment) Teardown() {
	if env.MockBackend != nil {
		env.MockBackend.Close()
	}
}

// BaseURL returns the mock backend base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.MockBackend.URL
}

// options returns credentials for the named provider pointing at the mock
// backend. Each provider gets the base shape its URL rule expects.
func (env *TestEnvironment) options(providerName string) provider.Options {
	base := env.BaseURL()
	switch providerName {
	case "copilot":
		base += "/v1"
	case "gemini":
		base += "/v1"
	}
	return provider.Options{APIKey: apiKey, BaseURL: base}
}

// runEngine runs req through a fresh engine and returns what it printed.
func runEngine(t *testing.T, req engine.Request) (string, error) {
	t.Helper()
	var out bytes.Buffer
	eng, err := engine.New(builtin.Registry(), engine.Config{Out: &out})
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	err = eng.Run(context.Background(), req)
	return out.String(), err
}

// recordingDoer counts requests and remembers their bodies while passing
// them on to the default transport.
type recordingDoer struct {
	bodies []string
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		d.bodies = append(d.bodies, string(data))
		req.Body = io.NopCloser(bytes.NewReader(data))
	}
	return http.DefaultClient.Do(req)
}

// sseResponse builds a 200 text/event-stream response from raw frames.
func sseResponse(frames ...string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(strings.NewReader(strings.Join(frames, ""))),
	}
}
