package worker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/matheus3301/floodline/internal/cache"
	"go.uber.org/zap"
)

const offlinePage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Offline</title></head>
<body><h1>You are offline</h1><p>This page is not available offline. Check your connection and try again.</p></body></html>
`

func (m *Manager) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := m.fetch(req)
	if err == nil {
		m.store(req, resp)
		return resp.HTTP(req), nil
	}
	if cached := m.match(req); cached != nil {
		m.logger.Debug("network failed, serving cached", zap.String("url", req.URL.String()), zap.Error(err))
		return cached.HTTP(req), nil
	}
	return nil, fmt.Errorf("%w: %w", ErrOffline, err)
}

func (m *Manager) cacheFirst(req *http.Request) (*http.Response, error) {
	if cached := m.match(req); cached != nil {
		return cached.HTTP(req), nil
	}
	resp, err := m.fetch(req)
	if err == nil {
		m.store(req, resp)
		return resp.HTTP(req), nil
	}
	return m.offlineFallback(req, err)
}

func (m *Manager) staleWhileRevalidate(req *http.Request) (*http.Response, error) {
	cached := m.match(req)

	type result struct {
		resp *cache.Response
		err  error
	}
	done := make(chan result, 1)
	bg := req.Clone(context.WithoutCancel(req.Context()))
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		resp, err := m.fetch(bg)
		if err == nil {
			m.store(bg, resp)
		}
		done <- result{resp, err}
	}()

	if cached != nil {
		return cached.HTTP(req), nil
	}
	r := <-done
	if r.err == nil {
		return r.resp.HTTP(req), nil
	}
	return m.offlineFallback(req, r.err)
}

// offlineFallback serves a navigation from the cached root document, then from
// a synthetic offline page. Other requests get the network error.
func (m *Manager) offlineFallback(req *http.Request, err error) (*http.Response, error) {
	if !IsNavigation(req) {
		return nil, fmt.Errorf("%w: %w", ErrOffline, err)
	}
	if root, rerr := m.newRequest(req.Context(), "/"); rerr == nil {
		if cached := m.match(root); cached != nil {
			return cached.HTTP(req), nil
		}
	}
	m.logger.Info("serving offline page", zap.String("url", req.URL.String()), zap.Error(err))
	offline := &cache.Response{
		Status: http.StatusServiceUnavailable,
		Header: http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:   []byte(offlinePage),
	}
	return offline.HTTP(req), nil
}

func (m *Manager) fetch(req *http.Request) (*cache.Response, error) {
	resp, err := m.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	return cache.NewResponse(resp)
}

// match looks req up in the current generation's caches.
func (m *Manager) match(req *http.Request) *cache.Response {
	for _, name := range m.names.All() {
		ok, err := m.storage.Has(name)
		if err != nil || !ok {
			continue
		}
		c, err := m.storage.Open(name)
		if err != nil {
			continue
		}
		resp, err := c.Match(req)
		if err != nil {
			m.logger.Warn("cache read failed", zap.String("cache", name), zap.Error(err))
			continue
		}
		if resp != nil {
			return resp
		}
	}
	return nil
}

// store writes a successful response for a remote URL into the dynamic cache.
// Failures are logged and never affect the response.
func (m *Manager) store(req *http.Request, resp *cache.Response) {
	if !resp.OK() || !req.URL.IsAbs() {
		return
	}
	if m.shouldStore != nil && !m.shouldStore(req) {
		return
	}
	c, err := m.storage.Open(m.names.Dynamic)
	if err == nil {
		err = c.Put(req, resp)
	}
	if err != nil {
		m.logger.Warn("cache write failed", zap.String("url", req.URL.String()), zap.Error(err))
	}
}
