// Package cache stores HTTP responses in named caches keyed by request identity.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrNotCacheable is returned by Put for requests other than GET.
var ErrNotCacheable = errors.New("only GET requests are cacheable")

// Storage is the set of named caches.
type Storage interface {
	// Open returns the named cache, creating it if needed.
	Open(name string) (Cache, error)
	Has(name string) (bool, error)
	// Names lists caches in creation order.
	Names() ([]string, error)
	// Delete removes a cache and its entries. Reports whether it existed.
	Delete(name string) (bool, error)
}

// Cache is one named cache. Match returns nil, nil on a miss.
type Cache interface {
	Name() string
	Match(req *http.Request) (*Response, error)
	Put(req *http.Request, resp *Response) error
	Delete(req *http.Request) (bool, error)
	// Keys lists stored request URLs in insertion order.
	Keys() ([]string, error)
}

// Response is a stored response snapshot.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// NewResponse reads resp's body into a snapshot and leaves resp readable.
func NewResponse(resp *http.Response) (*Response, error) {
	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// HTTP builds a fresh *http.Response for req from the snapshot.
func (r *Response) HTTP(req *http.Request) *http.Response {
	header := r.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.Status, http.StatusText(r.Status)),
		StatusCode:    r.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

// Key returns the identity a request is stored under: its URL without fragment.
func Key(req *http.Request) string {
	u := *req.URL
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func cacheable(req *http.Request) error {
	if req.Method != "" && req.Method != http.MethodGet {
		return fmt.Errorf("%w: %s %s", ErrNotCacheable, req.Method, req.URL)
	}
	return nil
}
