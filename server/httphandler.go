package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const HelpText = `
sqnz

To consume the current sequence number, POST to /PROJECT/TAG:

    curl -X POST http://sqnz/project/tag

To peek at the current sequence number without consuming it, GET /PROJECT/TAG:

    curl http://sqnz/project/tag

`

type Handler interface {
	http.Handler
	HandleFastHTTP(ctx *fasthttp.RequestCtx)
}

func NewHTTPHandler(seqs Sequences, logger *zap.Logger) Handler {
	return &httpHandler{seqs: seqs, logger: logger}
}

type httpHandler struct {
	seqs   Sequences
	logger *zap.Logger
}

// response is what both engines render.
type response struct {
	status int
	body   string
	allow  string
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.handle(r.Method, r.URL.EscapedPath())
	if resp.allow != "" {
		w.Header().Set("Allow", resp.allow)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.status)
	if _, err := fmt.Fprint(w, resp.body); err != nil {
		h.logger.Debug("could not write response", zap.Error(err))
	}
}

func (h *httpHandler) HandleFastHTTP(ctx *fasthttp.RequestCtx) {
	resp := h.handle(string(ctx.Method()), string(ctx.URI().PathOriginal()))
	if resp.allow != "" {
		ctx.Response.Header.Set("Allow", resp.allow)
	}
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetStatusCode(resp.status)
	ctx.SetBodyString(resp.body)
}

func (h *httpHandler) handle(method, escapedPath string) response {
	if escapedPath == "/" {
		if method != http.MethodGet && method != http.MethodHead {
			return response{http.StatusMethodNotAllowed, "only GET / allowed\n", "GET, HEAD"}
		}
		return response{status: http.StatusOK, body: HelpText}
	}
	project, tag, ok := splitCounterPath(escapedPath)
	if !ok {
		return response{status: http.StatusNotFound, body: "not found\n"}
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		v, err := h.seqs.Peek(project, tag)
		if err != nil {
			return h.fail("could not peek at sequence", project, tag, err)
		}
		return response{status: http.StatusOK, body: strconv.FormatUint(v, 10)}
	case http.MethodPost:
		v, err := h.seqs.Consume(project, tag)
		if err != nil {
			return h.fail("could not consume sequence", project, tag, err)
		}
		return response{status: http.StatusOK, body: strconv.FormatUint(v, 10)}
	default:
		return response{http.StatusMethodNotAllowed, "only GET and POST /PROJECT/TAG allowed\n", "GET, HEAD, POST"}
	}
}

func (h *httpHandler) fail(msg, project, tag string, err error) response {
	h.logger.Error(msg, zap.String("project", project), zap.String("tag", tag), zap.Error(err))
	return response{status: http.StatusInternalServerError, body: fmt.Sprintf("%s: %v", msg, err)}
}

// splitCounterPath turns "/{project}/{tag}" into its two unescaped segments.
// The segments are not validated further.
func splitCounterPath(escapedPath string) (project, tag string, ok bool) {
	rest, found := strings.CutPrefix(escapedPath, "/")
	if !found {
		return "", "", false
	}
	rawProject, rawTag, found := strings.Cut(rest, "/")
	if !found || rawProject == "" || rawTag == "" || strings.Contains(rawTag, "/") {
		return "", "", false
	}
	project, err := url.PathUnescape(rawProject)
	if err != nil {
		return "", "", false
	}
	tag, err = url.PathUnescape(rawTag)
	if err != nil {
		return "", "", false
	}
	return project, tag, true
}
