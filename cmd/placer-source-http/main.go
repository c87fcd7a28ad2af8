// Command placer-source-http is the reference fetcher for the "http"
// source: it polls a list of URLs given on stdin, deduplicating by ETag
// and content digest, and writes deliveries on stdout in placer's
// length-framed wire format.
package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"placer.io/fetcher"
)

const version = "1.0.0"

func main() {
	if err := fetcher.WriteGreeting(os.Stdout, "placer-source-http", version, "started"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	urls, err := fetcher.ReadRequest(bufio.NewReader(os.Stdin))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading URLs to fetch from stdin:", err)
		os.Exit(1)
	}

	var stdout sync.Mutex
	var wg sync.WaitGroup
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			poll(url, &stdout)
		}(url)
	}
	wg.Wait()
}

// poll repeatedly fetches url, writing a delivery to stdout whenever the
// content actually changes, pacing itself with a token-bucket limiter
// plus a few seconds of jitter between attempts.
func poll(url string, stdout *sync.Mutex) {
	r := newResource(url)
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	for {
		if err := limiter.Wait(context.Background()); err != nil {
			return
		}

		body, err := r.fetch()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error fetching URL: %s %v\n", url, err)
		} else if body != nil {
			stdout.Lock()
			err := fetcher.WriteDelivery(os.Stdout, url, body)
			stdout.Unlock()
			if err != nil {
				return
			}
		}

		jitter := time.Duration(1+rand.Intn(14)) * time.Second
		time.Sleep(jitter)
	}
}

// resource tracks one URL's dedup state: the ETag it was last served
// with, and a content digest as a fallback for servers that don't honor
// conditional requests.
type resource struct {
	url     string
	client  *http.Client
	etag    string
	sha256  [32]byte
	hasHash bool
}

func newResource(url string) *resource {
	return &resource{url: url, client: &http.Client{Timeout: 30 * time.Second}}
}

// fetch returns the response body if it is new content, or nil if the
// resource is unchanged (304 response, or identical digest).
func (r *resource) fetch() ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	if r.etag != "" {
		req.Header.Set("Cache-Control", "max-age=0")
		req.Header.Set("If-None-Match", r.etag)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return nil, nil
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if etag := resp.Header.Get("ETag"); etag != "" {
			r.etag = etag
		}

		sum := sha256.Sum256(body)
		if r.hasHash && sum == r.sha256 {
			return nil, nil
		}
		r.sha256 = sum
		r.hasHash = true
		return body, nil
	default:
		return nil, fmt.Errorf("unexpected status code: %s", resp.Status)
	}
}
