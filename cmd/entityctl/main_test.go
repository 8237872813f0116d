package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const courseJSON = `{
  "class": ["course"],
  "properties": {"name": "Biology 101"},
  "links": [{"rel": ["self"], "href": "/courses/1"}],
  "actions": [{"name": "rename", "method": "PATCH", "href": "/courses/1", "type": "application/json",
               "fields": [{"name": "name", "type": "text", "value": "Biology 101"}]}]
}`

type courseServer struct {
	*httptest.Server
	mu      sync.Mutex
	name    string
	patches []map[string]any
}

func newCourseServer(t *testing.T) *courseServer {
	t.Helper()
	cs := &courseServer{name: "Biology 101"}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/courses/1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		cs.mu.Lock()
		defer cs.mu.Unlock()
		if r.Method == http.MethodPatch {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			cs.patches = append(cs.patches, body)
			cs.name, _ = body["name"].(string)
		}
		_, _ = io.WriteString(w, strings.Replace(courseJSON, `"name": "Biology 101"}`, `"name": "`+cs.name+`"}`, 1))
	}))
	t.Cleanup(cs.Close)
	return cs
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var stdout, stderr bytes.Buffer
	code := run(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage:")

	code, _, stderr = runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown command: frobnicate")

	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "entityctl version "+version+"\n", stdout)
}

func TestRun_MissingFlags(t *testing.T) {
	t.Setenv("ENTITYCTL_HREF", "")
	t.Setenv("ENTITYCTL_TOKEN", "")

	code, _, stderr := runCLI(t, "get")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "-href is required")

	code, _, stderr = runCLI(t, "get", "-href", "https://x/y")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "-token is required")
}

func TestGet_PrintsSirenSummary(t *testing.T) {
	srv := newCourseServer(t)

	code, stdout, stderr := runCLI(t, "get", "-base-url", srv.URL, "-href", "/courses/1", "-token", "tok-1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "class:")
	assert.Contains(t, stdout, "course")
	assert.Contains(t, stdout, "Biology 101")
	assert.Contains(t, stdout, "rename")
	assert.Contains(t, stdout, "PATCH /courses/1")
}

func TestGet_TokenFromEnvReference(t *testing.T) {
	srv := newCourseServer(t)
	t.Setenv("COURSE_API_TOKEN", "Bearer tok-1")
	t.Setenv("ENTITYCTL_HREF", srv.URL+"/courses/1")

	code, stdout, stderr := runCLI(t, "get", "-token", "secretref:env:COURSE_API_TOKEN", "-json")
	require.Equal(t, 0, code, stderr)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, []any{"course"}, doc["class"])
}

func TestGet_StatusError(t *testing.T) {
	srv := newCourseServer(t)

	code, _, stderr := runCLI(t, "get", "-href", srv.URL+"/courses/404", "-token", "tok-1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Not Found response executing GET on "+srv.URL+"/courses/404.")
}

func TestAct_PerformsActionWithOverrides(t *testing.T) {
	srv := newCourseServer(t)

	code, stdout, stderr := runCLI(t, "act",
		"-href", srv.URL+"/courses/1", "-token", "tok-1",
		"-action", "rename", "-field", "name=Biology 102")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "PATCH "+srv.URL+"/courses/1: 200")
	assert.Contains(t, stdout, "Biology 102")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.patches, 1)
	assert.Equal(t, map[string]any{"name": "Biology 102"}, srv.patches[0])
}

func TestAct_UnknownAction(t *testing.T) {
	srv := newCourseServer(t)

	code, _, stderr := runCLI(t, "act", "-href", srv.URL+"/courses/1", "-token", "tok-1", "-action", "delete")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `action "delete" not found`)
	assert.Contains(t, stderr, "available: rename")
}

func TestAct_RequiresActionName(t *testing.T) {
	code, _, stderr := runCLI(t, "act", "-href", "https://x/y", "-token", "tok")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "-action is required")
}

func TestWatch_PrintsChangesUntilCount(t *testing.T) {
	srv := newCourseServer(t)

	code, stdout, stderr := runCLI(t, "watch",
		"-href", srv.URL+"/courses/1", "-token", "tok-1", "-count", "1", "-health-addr", "127.0.0.1:0")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "--- "+srv.URL+"/courses/1 version 1")
	assert.Contains(t, stdout, "Biology 101")
}

func TestFieldFlags(t *testing.T) {
	var f fieldFlags
	require.NoError(t, f.Set("a=1"))
	require.NoError(t, f.Set("b=x=y"))
	assert.Error(t, f.Set("novalue"))
	assert.Error(t, f.Set("=v"))
	assert.Equal(t, "a=1,b=x=y", f.String())
}

func TestRefreshLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n int
	done := make(chan error, 1)
	go func() {
		done <- refreshLoop(ctx, time.Millisecond, func() {
			n++
			if n == 3 {
				cancel()
			}
		})
	}()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, n, 3)
}
