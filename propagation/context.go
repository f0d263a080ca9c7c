package propagation

import (
	"context"
	"net/http"
	"sync"
)

type inboundKey struct{}

// WithInbound returns a context carrying the given inbound headers.
func WithInbound(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, inboundKey{}, h.Clone())
}

// Inbound returns the inbound headers carried by ctx, falling back to the
// global store. The result is never nil and may be modified by the caller.
func Inbound(ctx context.Context) http.Header {
	if ctx != nil {
		if h, ok := ctx.Value(inboundKey{}).(http.Header); ok {
			return h.Clone()
		}
	}
	if h := global.Get(); h != nil {
		return h
	}
	return http.Header{}
}

// Store holds inbound headers outside any context.
type Store struct {
	mu     sync.RWMutex
	header http.Header
}

// Get returns a copy of the stored headers, or nil when none are set.
func (s *Store) Get() http.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.header == nil {
		return nil
	}
	return s.header.Clone()
}

// Set replaces the stored headers.
func (s *Store) Set(h http.Header) {
	s.mu.Lock()
	s.header = h.Clone()
	s.mu.Unlock()
}

// Remove clears the stored headers.
func (s *Store) Remove() {
	s.mu.Lock()
	s.header = nil
	s.mu.Unlock()
}

var global = &Store{}

// Global returns the process-wide store consulted by Inbound.
func Global() *Store { return global }
