package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Go Release Notes</title>
	<script>console.log("tracking")</script>
	<style>body { color: red }</style>
</head>
<body>
	<h1>Go 1.22</h1>
	<p>Loop variables are now per-iteration.</p>
	<noscript>Enable JavaScript</noscript>
	<ul><li>Faster builds</li></ul>
</body>
</html>`

func TestWebpageCapabilityExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	capability := NewWebpageCapability()
	args, _ := json.Marshal(map[string]string{"url": srv.URL})

	result, err := capability.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	for _, want := range []string{"Go Release Notes", "Go 1.22", "Loop variables are now per-iteration.", "Faster builds"} {
		if !strings.Contains(result.Text, want) {
			t.Errorf("extracted text missing %q:\n%s", want, result.Text)
		}
	}
	for _, reject := range []string{"console.log", "color: red", "Enable JavaScript"} {
		if strings.Contains(result.Text, reject) {
			t.Errorf("extracted text should strip %q:\n%s", reject, result.Text)
		}
	}
}

func TestWebpageCapabilityRejectsBadScheme(t *testing.T) {
	capability := NewWebpageCapability()

	for _, url := range []string{"ftp://files.example", "file:///etc/passwd", "example.com"} {
		args, _ := json.Marshal(map[string]string{"url": url})
		if _, err := capability.Execute(context.Background(), args); err == nil {
			t.Errorf("%s: expected scheme rejection", url)
		}
	}
}

func TestWebpageCapabilityHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	capability := NewWebpageCapability()
	args, _ := json.Marshal(map[string]string{"url": srv.URL + "/missing"})
	if _, err := capability.Execute(context.Background(), args); err == nil {
		t.Fatal("expected error for 404 page")
	}
}
