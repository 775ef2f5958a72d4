// Package handler implements the request-handler contract: given a
// method and target, produce a static 200, a dynamic 200 (by executing a
// .cgi script), or a 404/403/501/500 error — always with a body the
// worker pool can attach accounting headers to.
package handler

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"http10admit/internal/httpserver"
)

// Kind classifies a Response for the worker pool's classify-and-increment
// step: static and dynamic successes increment counters, everything else
// (Error) does not.
type Kind int

const (
	KindStatic Kind = iota
	KindDynamic
	KindError
)

// Response is what a worker attaches accounting headers to and writes
// back to the client.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Kind        Kind
}

func errorResponse(status int, body string) Response {
	return Response{Status: status, ContentType: "text/plain; charset=utf-8", Body: []byte(body), Kind: KindError}
}

// Handler resolves static files under DocRoot and executes dynamic
// scripts under ScriptRoot (by default the same directory — the spec
// resolves both relative to "the server's working directory").
type Handler struct {
	DocRoot    string
	ScriptRoot string
	// ScriptLatencyFloor is slept before invoking a dynamic script, so
	// the handler stays "synchronously long (hundreds of milliseconds)"
	// even when the fixture script itself is instant. Zero disables it.
	ScriptLatencyFloor time.Duration
	log                zerolog.Logger
}

// New builds a Handler rooted at root for both static files and scripts.
func New(root string, scriptLatencyFloor time.Duration, log zerolog.Logger) *Handler {
	return &Handler{DocRoot: root, ScriptRoot: root, ScriptLatencyFloor: scriptLatencyFloor, log: log}
}

// Handle dispatches method/target to the static, dynamic, or error path.
func (h *Handler) Handle(ctx context.Context, method, target string) Response {
	if method != "GET" {
		return errorResponse(501, "Not Implemented\n")
	}
	path, _ := httpserver.SplitTarget(target)
	if strings.HasSuffix(path, ".cgi") {
		return h.handleDynamic(ctx, path)
	}
	return h.handleStatic(path)
}

// resolve joins root with the URL path, refusing to escape root via "..".
func resolve(root, path string) (string, bool) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(root, clean)
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return "", false
	}
	if fullAbs != rootAbs && !strings.HasPrefix(fullAbs, rootAbs+string(filepath.Separator)) {
		return "", false
	}
	return fullAbs, true
}

func (h *Handler) handleStatic(path string) Response {
	full, ok := resolve(h.DocRoot, path)
	if !ok {
		return errorResponse(404, "Not Found\n")
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsPermission(err) {
			return errorResponse(403, "Forbidden\n")
		}
		return errorResponse(404, "Not Found\n")
	}
	if info.IsDir() {
		return errorResponse(403, "Forbidden\n")
	}

	body, err := os.ReadFile(full)
	if err != nil {
		if os.IsPermission(err) {
			return errorResponse(403, "Forbidden\n")
		}
		return errorResponse(404, "Not Found\n")
	}

	ct := contentTypeFor(full)
	return Response{Status: 200, ContentType: ct, Body: body, Kind: KindStatic}
}

func (h *Handler) handleDynamic(ctx context.Context, path string) Response {
	name := filepath.Base(strings.TrimPrefix(path, "/"))
	full, ok := resolve(h.ScriptRoot, "/"+name)
	if !ok {
		return errorResponse(404, "Not Found\n")
	}

	info, err := os.Stat(full)
	if err != nil {
		return errorResponse(404, "Not Found\n")
	}
	if info.IsDir() || !isExecutable(info) {
		return errorResponse(403, "Forbidden\n")
	}

	if h.ScriptLatencyFloor > 0 {
		time.Sleep(h.ScriptLatencyFloor)
	}

	cmd := exec.CommandContext(ctx, full)
	cmd.Dir = h.ScriptRoot
	out, err := cmd.Output()
	if err != nil {
		h.log.Warn().Err(err).Str("script", full).Msg("dynamic script failed")
		return errorResponse(500, "Internal Server Error\n")
	}

	return Response{Status: 200, ContentType: "text/html; charset=utf-8", Body: out, Kind: KindDynamic}
}

func isExecutable(info fs.FileInfo) bool {
	return info.Mode()&0o111 != 0
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
