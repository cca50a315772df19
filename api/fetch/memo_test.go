package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemo_FetchesOnce(t *testing.T) {
	var n atomic.Int32
	memo := NewMemo(FetcherFunc(func(ctx context.Context, uri string) Outcome {
		n.Add(1)
		return Success(uri, []byte(uri), "text/css")
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			memo.Fetch(context.Background(), "http://example.com/a.css")
		}()
	}
	wg.Wait()
	memo.Fetch(context.Background(), "http://example.com/b.css")
	o := memo.Fetch(context.Background(), "http://example.com/b.css")

	if got := n.Load(); got != 2 {
		t.Errorf("underlying fetches = %d, want 2", got)
	}
	if got := memo.Calls("http://example.com/a.css"); got != 1 {
		t.Errorf("Calls(a) = %d, want 1", got)
	}
	if string(o.Content) != "http://example.com/b.css" {
		t.Errorf("memoized content = %q", o.Content)
	}
}

func TestMemo_RemembersFailures(t *testing.T) {
	var n atomic.Int32
	memo := NewMemo(FetcherFunc(func(ctx context.Context, uri string) Outcome {
		n.Add(1)
		return HTTPError(uri, 500)
	}))
	for i := 0; i < 3; i++ {
		if o := memo.Fetch(context.Background(), "http://example.com/x.css"); o.Status != 500 {
			t.Fatalf("Fetch() status = %d", o.Status)
		}
	}
	if got := n.Load(); got != 1 {
		t.Errorf("underlying fetches = %d, want 1", got)
	}
}
