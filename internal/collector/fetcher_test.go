package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/retry"

	"go.uber.org/zap"
)

const yahooFixture = `{"chart":{"result":[{
  "timestamp":[1767225600,1767312000,1767398400,1767484800],
  "indicators":{"quote":[{
    "open":[10,11,null,12],
    "high":[11,12,null,13],
    "low":[9,10,null,11],
    "close":[10.5,11.5,null,12.5],
    "volume":[100,200,null,300]}]}}],"error":null}}`

func TestYahooFetcher_SkipsNullBars(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		fmt.Fprint(w, yahooFixture)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "BRK.B", 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/BRK-B" {
		t.Errorf("symbol not mapped, path %s", gotPath)
	}
	if gotRange != "1y" {
		t.Errorf("expected range 1y, got %s", gotRange)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars after dropping the null one, got %d", len(bars))
	}
	if bars[2].Close != 12.5 || bars[2].Volume != 300 {
		t.Errorf("unexpected last bar %+v", bars[2])
	}

	bars, _ = f.FetchDailyBars(context.Background(), "AAPL", 2)
	if len(bars) != 2 || bars[1].Close != 12.5 {
		t.Errorf("expected the 2 most recent bars, got %+v", bars)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchDailyBars(context.Background(), "NOPE", 30); err == nil {
		t.Fatal("expected an error for an api error payload")
	}
}

func TestRESTFetcher_SortsAndDedupes(t *testing.T) {
	day := func(d int) int64 { return time.Date(2026, 1, d, 14, 30, 0, 0, time.UTC).Unix() }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("symbol") != "MSFT" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `[
			{"timestamp":%d,"open":3,"high":3,"low":3,"close":3,"volume":1},
			{"timestamp":%d,"open":1,"high":1,"low":1,"close":1,"volume":1},
			{"timestamp":%d,"open":2,"high":2,"low":2,"close":2,"volume":1},
			{"timestamp":%d,"open":4,"high":4,"low":4,"close":4,"volume":1}]`,
			day(3), day(1), day(2), day(3)+3600)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), "MSFT", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 2, 4}
	if len(bars) != len(want) {
		t.Fatalf("expected %d bars, got %d", len(want), len(bars))
	}
	for i, w := range want {
		if bars[i].Close != w {
			t.Errorf("bar %d: close %.0f, want %.0f", i, bars[i].Close, w)
		}
	}
}

func TestCollect_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCollector(NewRESTFetcher(srv.URL, "", ""), zap.NewNop())
	c.Retry = retry.Policy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	_, _, err := c.Collect(context.Background(), []model.WatchItem{{Symbol: "X"}})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("404 should not be retried, got %d calls", n)
	}
}

func TestCollect_ServerErrorRetried(t *testing.T) {
	var calls int32
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "[")
		for i := 0; i < 30; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			c := 100.0 + float64(i%3)
			fmt.Fprintf(w, `{"timestamp":%d,"open":%g,"high":%g,"low":%g,"close":%g,"volume":1}`,
				day.AddDate(0, 0, i).Unix(), c, c+1, c-1, c)
		}
		fmt.Fprint(w, "]")
	}))
	defer srv.Close()

	c := NewCollector(NewRESTFetcher(srv.URL, "", ""), zap.NewNop())
	c.Retry = retry.Policy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	snap, _, err := c.Collect(context.Background(), []model.WatchItem{{Symbol: "X"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(snap.Records))
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}
