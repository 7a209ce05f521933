package tzregistry

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
)

// roundTripperFunc is a function that implements the http.RoundTripper
// interface. Useful to fake a http.Client with fakeClient.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func fakeClient(fn roundTripperFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func TestLatest(t *testing.T) {
	const testEtag = "test-etag"

	var packBytes bytes.Buffer
	if err := WritePack(&packBytes, testPack(t)); err != nil {
		t.Fatal(err)
	}

	httpClient := fakeClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Errorf("unexpected method %q", req.Method)
		}
		if req.URL.String() != "https://packs.example.com/tz/tzpack-latest.bin" {
			t.Errorf("unexpected URL %q", req.URL)
		}

		if req.Header.Get("If-None-Match") == testEtag {
			return &http.Response{
				StatusCode: http.StatusNotModified,
				Body:       io.NopCloser(bytes.NewReader(nil)),
			}, nil
		}

		resp := &http.Response{
			Body:       io.NopCloser(bytes.NewReader(packBytes.Bytes())),
			StatusCode: http.StatusOK,
		}
		resp.Header = make(http.Header)
		resp.Header.Set("etag", testEtag)
		return resp, nil
	})

	c := &Client{BaseURL: "https://packs.example.com/tz/", HTTPClient: httpClient}
	ctx := context.Background()

	// First fetch downloads the pack.
	pack, gotEtag, err := c.Latest(ctx, emptyEtag)
	if err != nil {
		t.Fatalf("Latest(%q) returned unexpected error: %v", emptyEtag, err)
	}
	if gotEtag != testEtag {
		t.Errorf("Latest(%q) returned ETag %q, want %q", emptyEtag, gotEtag, testEtag)
	}
	if pack == nil || pack.Version != "2024b" {
		t.Fatalf("Latest(%q) returned pack %+v, want version 2024b", emptyEtag, pack)
	}
	if _, ok := pack.Zones["Europe/Berlin"]; !ok {
		t.Error("pack is missing Europe/Berlin")
	}

	// Second fetch with the stored ETag short-circuits.
	pack, newEtag, err := c.Latest(ctx, gotEtag)
	if err != nil {
		t.Errorf("Latest(%q) returned unexpected error: %v", gotEtag, err)
	}
	if newEtag != testEtag {
		t.Errorf("Latest(%q) returned ETag %q, want %q", gotEtag, newEtag, testEtag)
	}
	if pack != nil {
		t.Errorf("Latest(%q) returned non-nil pack", gotEtag)
	}
}

func TestLatestBadStatus(t *testing.T) {
	httpClient := fakeClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Status:     "500 Internal Server Error",
			Body:       io.NopCloser(bytes.NewReader(nil)),
		}, nil
	})
	c := &Client{BaseURL: "https://packs.example.com/tz/", HTTPClient: httpClient}
	if _, _, err := c.Latest(context.Background(), emptyEtag); err == nil {
		t.Error("expected error")
	}
}

func TestLatestCorruptPack(t *testing.T) {
	httpClient := fakeClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte("not a pack"))),
		}, nil
	})
	c := &Client{BaseURL: "https://packs.example.com/tz/", HTTPClient: httpClient}
	if _, _, err := c.Latest(context.Background(), emptyEtag); err == nil {
		t.Error("expected error")
	}
}

func TestDownloadRequiresBaseURL(t *testing.T) {
	c := &Client{}
	if _, _, err := c.Download(context.Background(), latestPackPath, emptyEtag); err == nil {
		t.Error("expected error")
	}
}
