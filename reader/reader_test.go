package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"powerposition/config"
	"powerposition/logger"
	"powerposition/models"
)

func quietLog() *logger.Log {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logger.Wrap(l)
}

func periodsJSON(volume int) string {
	s := "["
	for p := 1; p <= 24; p++ {
		if p > 1 {
			s += ","
		}
		s += fmt.Sprintf(`{"period":%d,"volume":%d}`, p, volume)
	}
	return s + "]"
}

func TestHTTPSourceFetchTrades(t *testing.T) {
	dates := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dates <- r.URL.Query().Get("date")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"trade_id":"a","date":"2024-06-10","periods":%s},{"trade_id":"b","periods":%s}]`, periodsJSON(100), periodsJSON(-5))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(config.HTTPSourceConfig{URL: srv.URL + "/trades", Timeout: time.Second, RequestsPerSecond: 100, BurstSize: 1}, quietLog())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	trades, err := src.FetchTrades(context.Background(), date)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotDate := <-dates; gotDate != "2024-06-10" {
		t.Fatalf("date query = %q", gotDate)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	for _, tr := range trades {
		if !tr.Date.Equal(date) {
			t.Errorf("trade %s date = %s, want %s", tr.TradeID, tr.Date, date)
		}
		if err := tr.Validate(); err != nil {
			t.Errorf("trade %s invalid: %v", tr.TradeID, err)
		}
	}
	if trades[1].Periods[0].Volume != -5 {
		t.Errorf("unexpected volume %v", trades[1].Periods[0].Volume)
	}
}

func TestHTTPSourceNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(config.HTTPSourceConfig{URL: srv.URL}, quietLog())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	_, err = src.FetchTrades(context.Background(), time.Now())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
}

func TestHTTPSourceBadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"trade_id":"x","date":"10/06/2024","periods":%s}]`, periodsJSON(1))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(config.HTTPSourceConfig{URL: srv.URL}, quietLog())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := src.FetchTrades(context.Background(), time.Now()); !errors.Is(err, models.ErrMalformedTrade) {
		t.Fatalf("error = %v, want ErrMalformedTrade", err)
	}
}

func TestHTTPSourceRateLimited(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	// one token per second with no burst headroom: the second call must wait
	src, err := NewHTTPSource(config.HTTPSourceConfig{URL: srv.URL, RequestsPerSecond: 1, BurstSize: 1}, quietLog())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := src.FetchTrades(context.Background(), time.Now()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := src.FetchTrades(ctx, time.Now()); err == nil {
		t.Fatal("expected second fetch to be held back by the limiter")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("server hits = %d, want 1", n)
	}
}

func TestHTTPSourceSetsUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(config.HTTPSourceConfig{URL: srv.URL}, quietLog())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := src.FetchTrades(context.Background(), time.Now()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := <-agents; got != userAgent {
		t.Fatalf("user agent = %q, want %q", got, userAgent)
	}
}

func TestNewHTTPSourceRejectsBadURL(t *testing.T) {
	if _, err := NewHTTPSource(config.HTTPSourceConfig{URL: "not a url"}, quietLog()); err == nil {
		t.Fatal("expected error for url without scheme")
	}
}

func TestSimulatedSourceShape(t *testing.T) {
	src := NewSimulatedSourceWithSeed(config.SimulatedConfig{MaxTrades: 4}, 7, quietLog())
	date := time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		trades, err := src.FetchTrades(context.Background(), date)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(trades) < 1 || len(trades) > 4 {
			t.Fatalf("got %d trades, want 1..4", len(trades))
		}
		for _, tr := range trades {
			if err := tr.Validate(); err != nil {
				t.Fatalf("invalid trade: %v", err)
			}
			if _, err := uuid.Parse(tr.TradeID); err != nil {
				t.Fatalf("trade id %q is not a uuid", tr.TradeID)
			}
			if want := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC); !tr.Date.Equal(want) {
				t.Fatalf("trade date %s, want %s", tr.Date, want)
			}
		}
	}
}

func TestSimulatedSourceAlwaysFails(t *testing.T) {
	src := NewSimulatedSourceWithSeed(config.SimulatedConfig{MaxTrades: 2, FailureRate: 1}, 1, quietLog())
	if _, err := src.FetchTrades(context.Background(), time.Now()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
}

func TestNewSelectsImplementation(t *testing.T) {
	src, err := New(config.SourceConfig{Type: config.SourceSimulated}, quietLog())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := src.(*SimulatedSource); !ok {
		t.Fatalf("got %T, want *SimulatedSource", src)
	}
	src, err = New(config.SourceConfig{Type: config.SourceHTTP, HTTP: config.HTTPSourceConfig{URL: "http://localhost:1"}}, quietLog())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := src.(*HTTPSource); !ok {
		t.Fatalf("got %T, want *HTTPSource", src)
	}
	if _, err := New(config.SourceConfig{Type: "ftp"}, quietLog()); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
