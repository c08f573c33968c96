package service

import (
	"sync/atomic"

	"github.com/stacklok/usb-ids-registry/internal/resolver"
)

// Holder is a RegistryProvider whose registry can be swapped while it is being read
type Holder struct {
	current atomic.Pointer[resolver.FetchResult]
}

// NewHolder creates a Holder, optionally seeded with a result
func NewHolder(initial *resolver.FetchResult) *Holder {
	h := &Holder{}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Set replaces the current result. A nil result is ignored.
func (h *Holder) Set(result *resolver.FetchResult) {
	if result == nil {
		return
	}
	h.current.Store(result)
}

// Current returns the current result, or nil before the first Set
func (h *Holder) Current() *resolver.FetchResult {
	return h.current.Load()
}
