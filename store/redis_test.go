package store

import (
	"strings"
	"testing"
	"time"
)

func TestRedis_KeyLayout(t *testing.T) {
	key := itemsKey(t, `{"filter": "x"}`)

	rk := respKey(key)
	if !strings.HasPrefix(rk, respKeyPrefix) {
		t.Errorf("response key %q missing prefix %q", rk, respKeyPrefix)
	}
	if !strings.Contains(rk, "ListItems") {
		t.Errorf("response key %q should carry the operation name", rk)
	}

	if !strings.HasPrefix(fieldKeyPrefix+"items", "gs:cache:field:") {
		t.Errorf("unexpected field index prefix")
	}
}

func TestNewRedis_InvalidURL(t *testing.T) {
	if _, err := NewRedis("not a url", time.Minute); err == nil {
		t.Errorf("expected an error for a malformed redis URL")
	}
}

func TestAvailability_Breaker(t *testing.T) {
	var a availability

	a.up()
	if !a.ok() {
		t.Fatalf("expected healthy after up")
	}

	a.down()
	if a.ok() {
		t.Fatalf("expected unhealthy after down")
	}

	// just failed: no retry inside the interval
	if a.shouldRetry(time.Hour) {
		t.Errorf("expected no retry immediately after a fault")
	}

	// interval elapsed: exactly one probe is granted
	if !a.shouldRetry(0) {
		t.Errorf("expected a probe once the interval elapsed")
	}
	if a.shouldRetry(time.Hour) {
		t.Errorf("expected the probe grant to be exclusive")
	}
}
