package asset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestHTTPFetcherDecodes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "tweetcard.asset")
	defer teardown()

	body := pngBytes(t, 4, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	img, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), srv.URL+"/a.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestHTTPFetcherFailuresCollapse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "tweetcard.asset")
	defer teardown()

	tiny := pngBytes(t, 1, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/garbage":
			w.Write([]byte("definitely not an image"))
		case "/slow":
			time.Sleep(300 * time.Millisecond)
			w.Write(tiny)
		case "/huge":
			w.Write(make([]byte, 2048))
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(100 * time.Millisecond)
	f.MaxBytes = 1024
	for _, path := range []string{"/missing", "/garbage", "/slow", "/huge"} {
		_, err := f.Fetch(context.Background(), srv.URL+path)
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("%s: expected ErrFetch, got %v", path, err)
		}
		var fe *FetchError
		if !errors.As(err, &fe) || fe.URL != srv.URL+path {
			t.Fatalf("%s: expected FetchError with URL, got %v", path, err)
		}
	}

	if _, err := f.Fetch(context.Background(), "::not a url"); !errors.Is(err, ErrFetch) {
		t.Fatalf("malformed url: expected ErrFetch, got %v", err)
	}
	if _, err := f.Fetch(context.Background(), ""); !errors.Is(err, ErrFetch) {
		t.Fatalf("empty url: expected ErrFetch, got %v", err)
	}
}

func TestFetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHTTPFetcher(time.Second).Fetch(ctx, srv.URL); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch for cancelled context, got %v", err)
	}
}
