package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/ByLCY/tweetcard/card"
	"github.com/ByLCY/tweetcard/fonts"
	"github.com/ByLCY/tweetcard/service"
	"github.com/ByLCY/tweetcard/storage"
)

type stubRenderer struct {
	err error
	got []card.Request
}

func (s *stubRenderer) Render(ctx context.Context, req card.Request) ([]byte, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("\x89PNG fake"), nil
}

func newTestServer(t *testing.T, r *stubRenderer) (*httptest.Server, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	ts := httptest.NewServer(New(service.New(r, store)))
	t.Cleanup(ts.Close)
	return ts, store
}

func post(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/generate_tweet_image", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGenerateAndFetch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "tweetcard.server")
	defer teardown()

	r := &stubRenderer{}
	ts, _ := newTestServer(t, r)
	resp := post(t, ts, `{"username":"Ali","handle":"ali","tweet_text":"Hello مرحبا world"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(out.ImageURL, "/get_image/tweet_") {
		t.Fatalf("unexpected image_url %q", out.ImageURL)
	}
	if len(r.got) != 1 || r.got[0].Username != "Ali" || r.got[0].Text != "Hello مرحبا world" {
		t.Fatalf("renderer saw %+v", r.got)
	}

	img := get(t, ts, out.ImageURL)
	if img.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", img.StatusCode)
	}
	if ct := img.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	data, _ := io.ReadAll(img.Body)
	if string(data) != "\x89PNG fake" {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestMissingFieldsUseDefaults(t *testing.T) {
	r := &stubRenderer{}
	ts, _ := newTestServer(t, r)
	if resp := post(t, ts, `{"username":""}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp := post(t, ts, ``); resp.StatusCode != http.StatusOK {
		t.Fatalf("empty body status = %d", resp.StatusCode)
	}
	explicit, empty := r.got[0], r.got[1]
	if explicit.Username != "" || explicit.Handle != card.DefaultHandle || explicit.Text != card.DefaultText {
		t.Fatalf("unexpected request %+v", explicit)
	}
	if empty.Username != card.DefaultUsername || empty.AttachmentRequested() {
		t.Fatalf("unexpected defaults %+v", empty)
	}
}

func TestMalformedJSON(t *testing.T) {
	r := &stubRenderer{}
	ts, _ := newTestServer(t, r)
	resp := post(t, ts, `{"username":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(r.got) != 0 {
		t.Fatalf("renderer must not run on malformed input")
	}
}

func TestFontFailureIsServerError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "tweetcard.server")
	defer teardown()

	r := &stubRenderer{err: &fonts.LoadError{Name: "naskh", Err: errors.New("missing")}}
	ts, _ := newTestServer(t, r)
	resp := post(t, ts, `{}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Error == "" {
		t.Fatalf("expected JSON error body, got %v / %+v", err, out)
	}
}

func TestGetImageErrors(t *testing.T) {
	ts, store := newTestServer(t, &stubRenderer{})
	if resp := get(t, ts, "/get_image/%5Csecret.png"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("backslash status = %d, want 400", resp.StatusCode)
	}
	if resp := get(t, ts, "/get_image/..secret.png"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("dot-dot status = %d, want 400", resp.StatusCode)
	}
	if n := store.Lookups(); n != 0 {
		t.Fatalf("store accessed %d times for an invalid id", n)
	}
	if resp := get(t, ts, "/get_image/"+storage.NewID()); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.StatusCode)
	}
}
