// Package testing provides test utilities for keysplit.
//
// It follows the net/http/httptest convention of shipping test helpers in a
// dedicated package:
//   - StartEmbeddedNATS: in-process NATS server with JetStream, for plan publishing tests
//   - CreateJetStreamKV: in-memory KV bucket on that server
//   - NewTestLogger: types.Logger that writes through testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    splittest "github.com/arloliu/keysplit/testing"
//	)
//
//	func TestPublish(t *testing.T) {
//	    _, nc := splittest.StartEmbeddedNATS(t)
//	    kv := splittest.CreateJetStreamKV(t, nc, "plans")
//	    // publish into kv
//	}
package testing
