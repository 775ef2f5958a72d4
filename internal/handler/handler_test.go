package handler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	root := t.TempDir()
	h := New(root, 0, zerolog.Nop())
	return h, root
}

func TestHandle_StaticOK(t *testing.T) {
	h, root := newTestHandler(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "home.html"), []byte("<h1>hi</h1>"), 0o644))

	resp := h.Handle(context.Background(), "GET", "/home.html")
	require.Equal(t, 200, resp.Status)
	require.Equal(t, KindStatic, resp.Kind)
	require.Equal(t, "<h1>hi</h1>", string(resp.Body))
	require.Equal(t, "text/html; charset=utf-8", resp.ContentType)
}

func TestHandle_StaticNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := h.Handle(context.Background(), "GET", "/not_found")
	require.Equal(t, 404, resp.Status)
	require.Equal(t, KindError, resp.Kind)
}

func TestHandle_StaticForbiddenUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}
	h, root := newTestHandler(t)
	p := filepath.Join(root, "secret.html")
	require.NoError(t, os.WriteFile(p, []byte("nope"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(p, 0o644) })

	resp := h.Handle(context.Background(), "GET", "/secret.html")
	require.Equal(t, 403, resp.Status)
	require.Equal(t, KindError, resp.Kind)
}

func TestHandle_StaticForbiddenDirectory(t *testing.T) {
	h, root := newTestHandler(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "adir"), 0o755))

	resp := h.Handle(context.Background(), "GET", "/adir")
	require.Equal(t, 403, resp.Status)
}

func TestHandle_StaticRejectsPathEscape(t *testing.T) {
	h, root := newTestHandler(t)
	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	t.Cleanup(func() { _ = os.Remove(outside) })

	resp := h.Handle(context.Background(), "GET", "/../outside.txt")
	require.Equal(t, 404, resp.Status)
}

func TestHandle_DynamicOK(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shebang scripts not meaningful on windows")
	}
	h, root := newTestHandler(t)
	script := filepath.Join(root, "output.cgi")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho -n hello-dynamic\n"), 0o755))

	resp := h.Handle(context.Background(), "GET", "/output.cgi")
	require.Equal(t, 200, resp.Status)
	require.Equal(t, KindDynamic, resp.Kind)
	require.Equal(t, "hello-dynamic", string(resp.Body))
}

func TestHandle_DynamicForbiddenNotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}
	h, root := newTestHandler(t)
	script := filepath.Join(root, "forbidden.cgi")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hi\n"), 0o644))

	resp := h.Handle(context.Background(), "GET", "/forbidden.cgi")
	require.Equal(t, 403, resp.Status)
	require.Equal(t, KindError, resp.Kind)
}

func TestHandle_DynamicNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := h.Handle(context.Background(), "GET", "/missing.cgi")
	require.Equal(t, 404, resp.Status)
}

func TestHandle_DynamicScriptFailureIs500(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shebang scripts not meaningful on windows")
	}
	h, root := newTestHandler(t)
	script := filepath.Join(root, "broken.cgi")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 1\n"), 0o755))

	resp := h.Handle(context.Background(), "GET", "/broken.cgi")
	require.Equal(t, 500, resp.Status)
	require.Equal(t, KindError, resp.Kind)
}

func TestHandle_NonGETIs501(t *testing.T) {
	h, root := newTestHandler(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "home.html"), []byte("x"), 0o644))

	resp := h.Handle(context.Background(), "POST", "/home.html")
	require.Equal(t, 501, resp.Status)
	require.Equal(t, KindError, resp.Kind)
}
