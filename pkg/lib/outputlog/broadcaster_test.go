package outputlog

import (
	"testing"
	"time"
)

// helper: receive with timeout
func recvWithTimeout[T any](t *testing.T, ch <-chan T, d time.Duration) (T, bool) {
	t.Helper()
	var zero T
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		return zero, false
	}
}

// helper: assert no receive within duration
func assertNoRecv[T any](t *testing.T, ch <-chan T, d time.Duration) {
	t.Helper()
	if v, ok := recvWithTimeout(t, ch, d); ok {
		t.Fatalf("unexpected receive: %v", v)
	}
}

func TestBroadcaster_SingleSubscriberReceives(t *testing.T) {
	b := RunNewBroadcaster[string]()
	defer b.Stop()

	ch, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish("hello")

	if v, ok := recvWithTimeout(t, ch, 200*time.Millisecond); !ok || v != "hello" {
		t.Fatalf("expected to receive 'hello', got ok=%v val=%q", ok, v)
	}
}

func TestBroadcaster_MultipleSubscribersReceive(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	ch1, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	b.Publish(1)
	if v, ok := recvWithTimeout(t, ch1, 200*time.Millisecond); !ok || v != 1 {
		t.Fatalf("ch1 did not receive initial message, ok=%v v=%d", ok, v)
	}

	ch2, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish(2)

	if v, ok := recvWithTimeout(t, ch1, 200*time.Millisecond); !ok || v != 2 {
		t.Fatalf("ch1 did not receive broadcast 2, ok=%v v=%d", ok, v)
	}
	if v, ok := recvWithTimeout(t, ch2, 200*time.Millisecond); !ok || v != 2 {
		t.Fatalf("ch2 did not receive broadcast 2, ok=%v v=%d", ok, v)
	}
}

func TestBroadcaster_SlowSubscriberGetsLatest(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	slow, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	// Pre-fill so the broadcaster has to replace the stale value
	slow <- -1

	b.Publish(42)
	time.Sleep(20 * time.Millisecond)

	if v, ok := recvWithTimeout(t, slow, 200*time.Millisecond); !ok || v != 42 {
		t.Fatalf("slow did not receive latest 42, ok=%v v=%d", ok, v)
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	a, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	other, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish(1)
	if v, ok := recvWithTimeout(t, a, 200*time.Millisecond); !ok || v != 1 {
		t.Fatalf("subscriber 'a' did not get initial message, ok=%v v=%d", ok, v)
	}
	<-other

	b.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatalf("expected unsubscribed channel to be closed")
	}

	for i := 0; i < 3; i++ {
		b.Publish(100 + i)
		if v, ok := recvWithTimeout(t, other, 200*time.Millisecond); !ok || v != 100+i {
			t.Fatalf("subscriber 'other' missed message %d, ok=%v v=%d", 100+i, ok, v)
		}
	}
}

func TestBroadcaster_StopClosesSubscribersAndRejectsNew(t *testing.T) {
	b := RunNewBroadcaster[int]()

	ch, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Stop()
	b.Stop()
	b.Publish(7)

	deadline := time.After(500 * time.Millisecond)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if _, err := b.Subscribe(); err == nil {
					t.Fatalf("expected Subscribe to fail after Stop")
				}
				assertNoRecv(t, ch, 10*time.Millisecond)
				return
			}
		case <-deadline:
			t.Fatalf("subscriber channel was not closed after Stop")
		}
	}
}

func TestBroadcaster_UnsubscribeWhilePublishing(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	stop := make(chan struct{})
	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			b.Publish(i)
		}
	}()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		ch, err := b.Subscribe()
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		b.Unsubscribe(ch)
		if _, ok := <-ch; ok {
			// a value delivered before Unsubscribe is fine; the channel must still close
			if _, ok := recvWithTimeout(t, ch, 200*time.Millisecond); ok {
				t.Fatalf("channel still open after Unsubscribe")
			}
		}
	}

	close(stop)
	<-published
}
