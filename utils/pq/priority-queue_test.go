package pq

import "testing"

func TestPriorityQueueOrder(t *testing.T) {
	q := Empty(func(a, b int) bool { return a < b })
	for _, x := range []int{5, 3, 9, 3, 1, 9, 7} {
		q.Add(x)
	}

	if q.Len() != 5 {
		t.Errorf("Expected duplicates to be dropped, queue has %d elements", q.Len())
	}

	expected := []int{1, 3, 5, 7, 9}
	for _, e := range expected {
		if q.IsEmpty() {
			t.Fatalf("Queue emptied early, expected %d", e)
		}
		if got := q.GetNext(); got != e {
			t.Errorf("GetNext() = %d, expected %d", got, e)
		}
	}

	if !q.IsEmpty() {
		t.Error("Expected queue to be empty")
	}
}

func TestPriorityQueueReAdd(t *testing.T) {
	q := Empty(func(a, b int) bool { return a < b })
	q.Add(2)
	if !q.Contains(2) {
		t.Error("Expected 2 to be queued")
	}
	q.GetNext()
	if q.Contains(2) {
		t.Error("Expected 2 to be dequeued")
	}
	q.Add(2)
	if q.Len() != 1 {
		t.Error("Expected a popped element to be insertable again")
	}
}
