package loop

import (
	"testing"
	"time"
)

func entryAt(seq uint64, t time.Time) *timerEntry {
	return &timerEntry{deadline: t, seq: seq}
}

func TestPriorityQueue(t *testing.T) {
	base := time.Unix(0, 0)

	t.Run("Overall", func(t *testing.T) {
		var pq priorityqueue[*timerEntry]

		for i, off := range []int{5, 3, 8, 1, 9, 2, 7, 4} {
			pq.Push(entryAt(uint64(i), base.Add(time.Duration(off)*time.Second)))
		}

		var got []time.Duration
		for !pq.Empty() {
			got = append(got, pq.Pop().deadline.Sub(base))
		}

		want := []time.Duration{1, 2, 3, 4, 5, 7, 8, 9}
		if len(got) != len(want) {
			t.Fatalf("got %d entries, want %d", len(got), len(want))
		}
		for i, w := range want {
			if got[i] != w*time.Second {
				t.Fatalf("entry %d: got %v, want %v", i, got[i], w*time.Second)
			}
		}
	})

	t.Run("FIFO for equal deadlines", func(t *testing.T) {
		var pq priorityqueue[*timerEntry]

		deadline := base.Add(time.Second)
		u := entryAt(0, deadline)
		v := entryAt(1, deadline)
		w := entryAt(2, deadline)

		pq.Push(u)
		pq.Push(v)
		pq.Push(w)

		if pq.Pop() != u || pq.Pop() != v || pq.Pop() != w {
			t.Fatal("equal-deadline entries did not pop in push order")
		}
	})
}
