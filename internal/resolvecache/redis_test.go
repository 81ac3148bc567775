package resolvecache

import "testing"

func TestDialRedis_Unreachable(t *testing.T) {
	// Nothing listens on this port; the connection check must fail instead of
	// handing out a dead cache.
	if _, err := DialRedis("127.0.0.1:1", "", 0); err == nil {
		t.Error("Expected error for unreachable redis")
	}
}
