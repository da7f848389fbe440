package events

import (
	"testing"

	"github.com/yourorg/tasklist/internal/domain"
)

func TestPublishReachesOnlyTenantSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe("tenant-1")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("tenant-2")
	defer cancel2()

	hub.Publish("tenant-1", []domain.Item{{ID: "a", Title: "x"}})

	select {
	case items := <-ch1:
		if len(items) != 1 || items[0].ID != "a" {
			t.Errorf("unexpected snapshot: %+v", items)
		}
	default:
		t.Fatal("tenant-1 subscriber got nothing")
	}

	select {
	case items := <-ch2:
		t.Errorf("tenant-2 received tenant-1 snapshot: %+v", items)
	default:
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("tenant-1")
	cancel()

	hub.Publish("tenant-1", []domain.Item{{ID: "a"}})

	select {
	case items := <-ch:
		t.Errorf("cancelled subscriber received snapshot: %+v", items)
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe("tenant-1")
	defer cancel()

	// Channel buffer is small; publishing past it must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish("tenant-1", []domain.Item{{ID: "a"}})
		}
		close(done)
	}()

	select {
	case <-done:
	default:
		// Give the goroutine a chance; Publish is synchronous so by the time
		// we get here it should already be finished.
		<-done
	}
}
