package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type brokenSequences struct{ err error }

func (b brokenSequences) Peek(string, string) (uint64, error)    { return 0, b.err }
func (b brokenSequences) Consume(string, string) (uint64, error) { return 0, b.err }

// do runs a request through the net/http side of the handler.
func do(t *testing.T, h Handler, method, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

// doFast runs a request through the fasthttp side of the handler.
func doFast(h Handler, method, target string) (int, string) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(target)
	h.HandleFastHTTP(&ctx)
	return ctx.Response.StatusCode(), string(ctx.Response.Body())
}

type requester func(t *testing.T, h Handler, method, target string) (int, string)

var engines = map[string]requester{
	"net/http": do,
	"fasthttp": func(_ *testing.T, h Handler, method, target string) (int, string) {
		return doFast(h, method, target)
	},
}

func TestHTTPHandlerScenarios(t *testing.T) {
	for name, req := range engines {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			h := NewHTTPHandler(s, zaptest.NewLogger(t))

			code, body := req(t, h, http.MethodGet, "/alpha/x")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, "0", body)
			_, err := os.Stat(filepath.Join(s.Root(), "alpha", "x"))
			require.ErrorIs(t, err, os.ErrNotExist)

			code, body = req(t, h, http.MethodPost, "/alpha/x")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, "0", body)
			require.Equal(t, "1", readFile(t, filepath.Join(s.Root(), "alpha", "x")))

			code, body = req(t, h, http.MethodPost, "/alpha/x")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, "1", body)

			code, body = req(t, h, http.MethodGet, "/alpha/x")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, "2", body)

			code, body = req(t, h, http.MethodPost, "/beta/x")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, "0", body)
		})
	}
}

func TestHTTPHandlerDecodesSegments(t *testing.T) {
	for name, req := range engines {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			h := NewHTTPHandler(s, zap.NewNop())
			code, body := req(t, h, http.MethodPost, "/my%20project/v1.0?ignored=1")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, "0", body)
			require.Equal(t, "1", readFile(t, filepath.Join(s.Root(), "my project", "v1.0")))
		})
	}
}

func TestHTTPHandlerEncodedSeparatorReachesStore(t *testing.T) {
	for name, req := range engines {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			h := NewHTTPHandler(s, zap.NewNop())
			code, body := req(t, h, http.MethodPost, "/alpha/a%2Fb")
			require.Equal(t, http.StatusInternalServerError, code)
			require.True(t, strings.HasPrefix(body, "could not consume sequence: "), body)
		})
	}
}

func TestHTTPHandlerDotDotSegmentIsNotResolved(t *testing.T) {
	for name, req := range engines {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			h := NewHTTPHandler(s, zap.NewNop())
			code, _ := req(t, h, http.MethodPost, "/ghost%2F../x")
			require.Equal(t, http.StatusInternalServerError, code)
			_, err := os.Stat(filepath.Join(s.Root(), "x"))
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestHTTPHandlerParseFailure(t *testing.T) {
	for name, req := range engines {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			path := seed(t, s, "alpha", "x", "hello")
			h := NewHTTPHandler(s, zap.NewNop())

			code, body := req(t, h, http.MethodGet, "/alpha/x")
			require.Equal(t, http.StatusInternalServerError, code)
			require.True(t, strings.HasPrefix(body, "could not peek at sequence: "), body)

			code, body = req(t, h, http.MethodPost, "/alpha/x")
			require.Equal(t, http.StatusInternalServerError, code)
			require.True(t, strings.HasPrefix(body, "could not consume sequence: "), body)

			require.Equal(t, "hello", readFile(t, path))
		})
	}
}

func TestHTTPHandlerLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewHTTPHandler(brokenSequences{errors.New("disk on fire")}, zap.New(core))

	code, body := do(t, h, http.MethodPost, "/alpha/x")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "could not consume sequence: disk on fire", body)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "could not consume sequence", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "alpha", fields["project"])
	require.Equal(t, "x", fields["tag"])
	require.Equal(t, "disk on fire", fields["error"])
}

func TestHTTPHandlerHelp(t *testing.T) {
	for name, req := range engines {
		t.Run(name, func(t *testing.T) {
			h := NewHTTPHandler(brokenSequences{}, zap.NewNop())
			code, body := req(t, h, http.MethodGet, "/")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, HelpText, body)
			require.Contains(t, body, "curl -X POST")

			code, _ = req(t, h, http.MethodPost, "/")
			require.Equal(t, http.StatusMethodNotAllowed, code)
		})
	}
}

func TestHTTPHandlerUnroutable(t *testing.T) {
	h := NewHTTPHandler(brokenSequences{errors.New("must not be called")}, zap.NewNop())
	for _, target := range []string{"/alpha", "/alpha/", "/alpha/x/y", "/alpha/x/"} {
		code, _ := do(t, h, http.MethodGet, target)
		require.Equal(t, http.StatusNotFound, code, target)
		code, _ = doFast(h, http.MethodGet, target)
		require.Equal(t, http.StatusNotFound, code, target)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/alpha/x", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "GET, HEAD, POST", rec.Header().Get("Allow"))
}

func TestSplitCounterPath(t *testing.T) {
	for _, tc := range []struct {
		path         string
		project, tag string
		ok           bool
	}{
		{"/alpha/x", "alpha", "x", true},
		{"/a%2Fb/x", "a/b", "x", true},
		{"/alpha/%2E%2E", "alpha", "..", true},
		{"/alpha/%zz", "", "", false},
		{"alpha/x", "", "", false},
		{"/", "", "", false},
	} {
		p, tag, ok := splitCounterPath(tc.path)
		require.Equal(t, tc.ok, ok, tc.path)
		require.Equal(t, tc.project, p, tc.path)
		require.Equal(t, tc.tag, tag, tc.path)
	}
}
