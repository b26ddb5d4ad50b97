package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "HTML,HyperText Markup Language,Used for web pages,See also XML\n"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://example.com/a.csv")

	assert.Equal(t, "https://example.com/a.csv", cfg.URL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, int64(16<<20), cfg.MaxBytes)
}

func TestFetcher_FetchHTTP(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL, UserAgent: "wtf-test"})
	require.True(t, f.IsRemote())

	raw, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, raw)
	assert.Equal(t, "wtf-test", gotUA)
}

func TestFetcher_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL}).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Contains(t, err.Error(), "404")
}

func TestFetcher_InvalidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{'A', ',', 0xff, 0xfe, ',', ',', '\n'})
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestFetcher_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL, MaxBytes: 10}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrTooLarge)

	raw, err := New(Config{URL: srv.URL, MaxBytes: int64(len(sampleCSV))}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, raw)
}

func TestFetcher_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acronyms.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	for _, u := range []string{path, "file://" + path} {
		f := New(Config{URL: u})
		assert.False(t, f.IsRemote())

		raw, err := f.Fetch(context.Background())
		require.NoError(t, err, u)
		assert.Equal(t, sampleCSV, raw)
	}
}

func TestFetcher_MissingFile(t *testing.T) {
	_, err := New(Config{URL: filepath.Join(t.TempDir(), "missing.csv")}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetcher_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{URL: srv.URL}).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_FreshFetchPerCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL})
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetcher_CoalescesConcurrentCalls(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL})

	const n = 5
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := f.Fetch(context.Background())
			assert.NoError(t, err)
			results[i] = raw
		}(i)
	}

	// Give the callers time to join the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, raw := range results {
		assert.Equal(t, sampleCSV, raw)
	}
}

func TestFetcher_CanceledCallerDoesNotFailOthers(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctxA)
		errA <- err
	}()
	time.Sleep(50 * time.Millisecond)

	type result struct {
		raw string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		raw, err := f.Fetch(context.Background())
		resB <- result{raw, err}
	}()
	time.Sleep(50 * time.Millisecond)

	// The first caller leaves while the request is still in flight
	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case res := <-resB:
		require.NoError(t, res.err)
		assert.Equal(t, sampleCSV, res.raw)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
