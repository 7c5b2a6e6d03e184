package replay

import (
	"errors"
	"net/http"
)

// Transport is an http.RoundTripper served by an Engine.
type Transport struct {
	engine *Engine
}

// NewTransport returns a transport for e.
func NewTransport(e *Engine) *Transport {
	return &Transport{engine: e}
}

// Engine returns the engine behind t.
func (t *Transport) Engine() *Engine { return t.engine }

// RoundTrip replays or records req.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil || req.URL == nil {
		return nil, errors.New("replay: nil request or URL")
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	return t.engine.roundTrip(req)
}

var _ http.RoundTripper = (*Transport)(nil)
