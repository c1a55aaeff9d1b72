package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
)

type closingPublisher struct {
	events.Nop
	closed int
	err    error
}

func (p *closingPublisher) Close() error {
	p.closed++
	return p.err
}

func newTestServer(pub events.Publisher) *Server {
	return NewServer(nil, Options{
		Host:   "127.0.0.1",
		Port:   "0",
		Config: &config.CommunityConfig{},
		Log:    zerolog.Nop(),
		Events: pub,
	})
}

func TestShutdownClosesPublisher(t *testing.T) {
	pub := &closingPublisher{}
	s := newTestServer(pub)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, 1, pub.closed)
}

func TestShutdownReportsPublisherError(t *testing.T) {
	pub := &closingPublisher{err: errors.New("flush failed")}
	s := newTestServer(pub)

	err := s.Shutdown(context.Background())
	assert.EqualError(t, err, "flush failed")
	assert.Equal(t, 1, pub.closed)
}

func TestNewServerDefaultsToNop(t *testing.T) {
	s := newTestServer(nil)
	assert.Equal(t, events.Nop{}, s.Events)

	s.Router.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
