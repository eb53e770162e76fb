package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide the way the global registry would.
	a, b := New(), New()
	a.RecordSocialEvent(EventMessage)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.socialEvents.WithLabelValues(EventMessage)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.socialEvents.WithLabelValues(EventMessage)))
}

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordSocialEvent(EventFriendRequest)
	m.RecordSocialEvent(EventFriendRequest)
	m.RecordNotification("friend_request")
	m.RecordNewsFetch(true)
	m.RecordNewsFetch(false)
	m.ObserveRequest("GET", "/api/friends", "200", 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.socialEvents.WithLabelValues(EventFriendRequest)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("friend_request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.newsFetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.newsFetches.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/friends", "200")))
}

func TestTrackInFlight(t *testing.T) {
	m := New()
	done := m.TrackInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSocialEvent(EventTerminate)
		m.RecordNotification("info")
		m.RecordNewsFetch(true)
		m.ObserveRequest("GET", "/", "200", time.Second)
		m.TrackInFlight()()
	})
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.RecordSocialEvent(EventTerminate)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `devnode_social_events_total{event="account_terminate"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
