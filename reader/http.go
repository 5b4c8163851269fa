package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"powerposition/config"
	"powerposition/logger"
	"powerposition/models"
)

// HTTPSource fetches trades from a JSON endpoint:
//
//	GET <url>?date=YYYY-MM-DD
//	[{"trade_id":"...","date":"YYYY-MM-DD","periods":[{"period":1,"volume":100}, ...]}]
type HTTPSource struct {
	endpoint *url.URL
	client   *http.Client
	limiter  *rate.Limiter
	log      *logger.Entry
}

type tradeDTO struct {
	TradeID string          `json:"trade_id"`
	Date    string          `json:"date"`
	Periods []models.Period `json:"periods"`
}

// NewHTTPSource builds a rate limited client for cfg.URL.
func NewHTTPSource(cfg config.HTTPSourceConfig, log *logger.Log) (*HTTPSource, error) {
	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", cfg.URL, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid source url %q: scheme and host required", cfg.URL)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:    2,
		IdleConnTimeout: 90 * time.Second,
	}

	s := &HTTPSource{
		endpoint: endpoint,
		client:   &http.Client{Transport: userAgentTransport{agent: userAgent, base: transport}, Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		log:      log.WithComponent("http_source"),
	}
	s.log.WithFields(logger.Fields{"base_url": endpoint.String(), "timeout": timeout.String()}).Info("http trade source initialized")
	return s, nil
}

func (s *HTTPSource) FetchTrades(ctx context.Context, date time.Time) ([]models.Trade, error) {
	log := s.log.WithFields(logger.Fields{"operation": "fetch_trades", "date": date.Format(dateLayout)})

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	reqURL := *s.endpoint
	q := reqURL.Query()
	q.Set("date", date.Format(dateLayout))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSourceUnavailable, res.StatusCode, body)
	}

	var payload []tradeDTO
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}

	trades := make([]models.Trade, 0, len(payload))
	for _, dto := range payload {
		trade, err := dto.toTrade(date)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	logger.LogDataFlowEntry(log, "trade_api", "aggregator", len(trades), "trades")
	return trades, nil
}

// toTrade converts the wire form. A missing date falls back to the
// requested day.
func (d tradeDTO) toTrade(requested time.Time) (models.Trade, error) {
	date := requested
	if d.Date != "" {
		parsed, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			return models.Trade{}, fmt.Errorf("%w: trade %q has invalid date %q", models.ErrMalformedTrade, d.TradeID, d.Date)
		}
		date = parsed
	}
	y, m, dd := date.Date()
	return models.Trade{
		TradeID: d.TradeID,
		Date:    time.Date(y, m, dd, 0, 0, 0, 0, time.UTC),
		Periods: d.Periods,
	}, nil
}
