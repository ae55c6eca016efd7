package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mlarcher/pageproof/internal/manuscript"
)

func TestHTTPOracle_RoundTrip(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/render" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var in Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode input: %v", err)
		}
		if in.Tree == nil || len(in.Tree.Nodes) != 1 {
			t.Errorf("expected manuscript in request, got %+v", in.Tree)
		}
		json.NewEncoder(w).Encode(Artifact{Pages: []Page{
			{Index: 1, AnchorsHere: []string{"ch1"}, Trailing: ElementParagraph},
		}})
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "secret", time.Second)
	artifact, err := o.Render(context.Background(), Input{
		Tree: &manuscript.Tree{Nodes: []*manuscript.Node{
			{Kind: manuscript.KindHeading, Level: 1, Anchor: "ch1", Title: "One"},
		}},
		CSS: "body{}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if p, ok := artifact.PageOf("ch1"); !ok || p != 1 {
		t.Errorf("expected ch1 on page 1, got %d", p)
	}
}

func TestHTTPOracle_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "", time.Second)
	_, err := o.Render(context.Background(), Input{Tree: &manuscript.Tree{}})
	var oe *OracleError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OracleError, got %v", err)
	}
	if oe.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", oe.Status)
	}
	if !oe.Transient || !IsRetryable(err) {
		t.Error("expected 5xx to be retryable")
	}
}

func TestHTTPOracle_ClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad stylesheet", http.StatusBadRequest)
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "", time.Second)
	_, err := o.Render(context.Background(), Input{Tree: &manuscript.Tree{}})
	if IsRetryable(err) {
		t.Error("expected 4xx to be permanent")
	}
}

func TestHTTPOracle_EmptyArtifactRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Artifact{})
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "", time.Second)
	if _, err := o.Render(context.Background(), Input{Tree: &manuscript.Tree{}}); err == nil {
		t.Fatal("expected error for empty artifact")
	}
}

func TestHTTPOracle_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, "", 20*time.Millisecond)
	_, err := o.Render(context.Background(), Input{Tree: &manuscript.Tree{}})
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
}

type slowOracle struct {
	inflight int32
	max      int32
}

func (s *slowOracle) Render(ctx context.Context, in Input) (*Artifact, error) {
	n := atomic.AddInt32(&s.inflight, 1)
	defer atomic.AddInt32(&s.inflight, -1)
	for {
		m := atomic.LoadInt32(&s.max)
		if n <= m || atomic.CompareAndSwapInt32(&s.max, m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return &Artifact{Pages: []Page{{Index: 1}}}, nil
}

func TestLimit_BoundsInflightCalls(t *testing.T) {
	inner := &slowOracle{}
	o := Limit(inner, 2, 0)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if _, err := o.Render(context.Background(), Input{}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if got := atomic.LoadInt32(&inner.max); got > 2 {
		t.Errorf("expected at most 2 in-flight calls, observed %d", got)
	}
}

func TestLimit_TimeoutMapsToErrRenderTimeout(t *testing.T) {
	slow := oracleFunc(func(ctx context.Context, in Input) (*Artifact, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return &Artifact{Pages: []Page{{Index: 1}}}, nil
		}
	})
	o := Limit(slow, 0, 10*time.Millisecond)
	_, err := o.Render(context.Background(), Input{})
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
}

type oracleFunc func(ctx context.Context, in Input) (*Artifact, error)

func (f oracleFunc) Render(ctx context.Context, in Input) (*Artifact, error) {
	return f(ctx, in)
}
