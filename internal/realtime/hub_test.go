package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	h.Publish("u1")

	select {
	case _, ok := <-ch:
		assert.True(t, ok)
	default:
		t.Fatal("expected a pending signal")
	}
}

func TestHub_PublishScopedToUser(t *testing.T) {
	h := NewHub()
	ch1, cancel1 := h.Subscribe("u1")
	defer cancel1()
	ch2, cancel2 := h.Subscribe("u2")
	defer cancel2()

	h.Publish("u1")

	select {
	case <-ch1:
	default:
		t.Fatal("u1 should have a signal")
	}
	select {
	case <-ch2:
		t.Fatal("u2 must not receive u1's signal")
	default:
	}
}

func TestHub_PublishCoalescesWhenPending(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	// Must never block, however many times the store changes.
	for i := 0; i < 10; i++ {
		h.Publish("u1")
	}

	<-ch
	select {
	case <-ch:
		t.Fatal("signals should have coalesced into one")
	default:
	}
}

func TestHub_CancelClosesChannelAndStopsDelivery(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")

	cancel()
	_, ok := <-ch
	require.False(t, ok, "channel must be closed after cancel")

	// Publishing after teardown must be a no-op, not a panic.
	h.Publish("u1")

	// Double cancel is safe.
	cancel()
}

func TestHub_PublishWithoutSubscribersIsNoop(t *testing.T) {
	h := NewHub()
	h.Publish("nobody")
}
