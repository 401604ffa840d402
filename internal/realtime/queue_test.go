package realtime

import (
	"errors"
	"testing"
	"time"
)

func TestQueueSweepDeliversFIFO(t *testing.T) {
	q := NewQueue(5*time.Minute, 3)
	q.Enqueue("a", 1)
	q.Enqueue("b", 2)
	q.Enqueue("c", 3)

	var got []string
	st := q.Sweep(func(event string, payload any) error {
		got = append(got, event)
		return nil
	})
	if st.Delivered != 3 {
		t.Fatalf("delivered = %d, want 3", st.Delivered)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery order = %v, want %v", got, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue not empty after sweep")
	}
}

func TestQueueDropsExpired(t *testing.T) {
	now := time.Now()
	q := NewQueue(5*time.Minute, 3)
	q.now = func() time.Time { return now }
	q.Enqueue("old", nil)

	// one millisecond past the age limit
	q.now = func() time.Time { return now.Add(5*time.Minute + time.Millisecond) }
	q.Enqueue("fresh", nil)

	var delivered []string
	st := q.Sweep(func(event string, payload any) error {
		delivered = append(delivered, event)
		return nil
	})
	if st.DroppedAge != 1 || st.Delivered != 1 {
		t.Fatalf("stats = %+v, want 1 expired and 1 delivered", st)
	}
	if len(delivered) != 1 || delivered[0] != "fresh" {
		t.Fatalf("delivered = %v, want [fresh]", delivered)
	}
}

func TestQueueExactlyAtAgeLimitSurvives(t *testing.T) {
	now := time.Now()
	q := NewQueue(5*time.Minute, 3)
	q.now = func() time.Time { return now }
	q.Enqueue("edge", nil)
	q.now = func() time.Time { return now.Add(5 * time.Minute) }

	st := q.Sweep(func(string, any) error { return nil })
	if st.DroppedAge != 0 || st.Delivered != 1 {
		t.Fatalf("stats = %+v, message at exactly max age should deliver", st)
	}
}

func TestQueueRetryCap(t *testing.T) {
	q := NewQueue(5*time.Minute, 3)
	q.Enqueue("stubborn", nil)

	fail := errors.New("delivery failed")
	for i := 0; i < 3; i++ {
		st := q.Sweep(func(string, any) error { return fail })
		if st.Requeued != 1 {
			t.Fatalf("sweep %d: stats = %+v, want requeue", i, st)
		}
	}
	// fourth sweep drops: the message already burned its three attempts
	st := q.Sweep(func(string, any) error { return fail })
	if st.DroppedRetry != 1 || st.Requeued != 0 {
		t.Fatalf("stats = %+v, want retry-capped drop", st)
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty after retry cap")
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue(5*time.Minute, 3)
	q.Enqueue("a", nil)
	q.Enqueue("b", nil)
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("len = %d after clear", q.Len())
	}
}
