package id

import (
	"regexp"
	"sync"
	"testing"
	"time"
)

func TestSequencer_SameMillisecondStaysUnique(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	s := &Sequencer{now: func() time.Time { return fixed }}

	a := s.Next("webview")
	b := s.Next("webview")
	if a != "webview_1700000000000" {
		t.Fatalf("first id=%s", a)
	}
	if b != "webview_1700000000001" {
		t.Fatalf("second id=%s, want last+1", b)
	}
}

func TestSequencer_ConcurrentCallers(t *testing.T) {
	s := NewSequencer()
	pattern := regexp.MustCompile(`^webview_\d+$`)

	const n = 200
	out := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- s.Next("webview")
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]struct{}, n)
	for v := range out {
		if !pattern.MatchString(v) {
			t.Fatalf("id %q does not match webview_<digits>", v)
		}
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate id %s", v)
		}
		seen[v] = struct{}{}
	}
}
