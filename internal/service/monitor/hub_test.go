package monitor

import "testing"

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(4)
	defer cancel()

	hub.Publish(Record{DeliveryID: "d1", Kind: "message"})

	rec := <-ch
	if rec.DeliveryID != "d1" {
		t.Fatalf("expected d1, got %s", rec.DeliveryID)
	}
	if rec.Time.IsZero() {
		t.Fatal("expected publish to stamp the record")
	}
}

func TestPublishDropsForFullSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(Record{DeliveryID: "kept"})
	hub.Publish(Record{DeliveryID: "dropped"})

	if rec := <-ch; rec.DeliveryID != "kept" {
		t.Fatalf("expected kept, got %s", rec.DeliveryID)
	}
	select {
	case rec := <-ch:
		t.Fatalf("unexpected record %s", rec.DeliveryID)
	default:
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe(1)
	cancel()
	cancel()

	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
	hub.Publish(Record{DeliveryID: "after"})
}
