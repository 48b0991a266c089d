package containers

import "testing"

func TestRingQueueFIFOOrder(t *testing.T) {
	rq := NewRingQueue(3)
	for _, v := range []int{1, 2, 3} {
		if err := rq.Enqueue(v); err != nil {
			t.Fatalf("Enqueue(%d): %v", v, err)
		}
	}
	if !rq.IsFull() {
		t.Fatalf("expected queue to be full after filling to capacity")
	}
	if err := rq.Enqueue(4); err == nil {
		t.Fatalf("expected Enqueue on a full queue to error")
	}

	for _, want := range []int{1, 2, 3} {
		got, err := rq.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got.(int) != want {
			t.Fatalf("Dequeue = %v, want %d", got, want)
		}
	}
	if !rq.IsEmpty() {
		t.Fatalf("expected queue to be empty after draining")
	}
	if _, err := rq.Dequeue(); err == nil {
		t.Fatalf("expected Dequeue on an empty queue to error")
	}
}

func TestRingQueuePeekDoesNotRemove(t *testing.T) {
	rq := NewRingQueue(2)
	if err := rq.Enqueue("a"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	peeked, err := rq.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if peeked.(string) != "a" {
		t.Fatalf("Peek = %v, want %q", peeked, "a")
	}
	got, err := rq.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got.(string) != "a" {
		t.Fatalf("Dequeue after Peek = %v, want %q", got, "a")
	}
}

func TestRingQueueWrapsAroundBuffer(t *testing.T) {
	rq := NewRingQueue(2)
	rq.Enqueue(1)
	rq.Dequeue()
	rq.Enqueue(2)
	rq.Enqueue(3)
	if !rq.IsFull() {
		t.Fatalf("expected queue full after wrap-around fill")
	}
	v1, _ := rq.Dequeue()
	v2, _ := rq.Dequeue()
	if v1.(int) != 2 || v2.(int) != 3 {
		t.Fatalf("wrap-around order = (%v, %v), want (2, 3)", v1, v2)
	}
}
