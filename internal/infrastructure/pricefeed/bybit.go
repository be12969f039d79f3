package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/leverage_dashboard/internal/domain"
)

const (
	BybitBaseURL = "https://api.bybit.com"
	BybitWSURL   = "wss://stream.bybit.com/v5/public/linear"
)

// BybitFeed streams last prices for subscribed pairs over the public
// ticker websocket and keeps the latest snapshot in memory.
type BybitFeed struct {
	baseURL   string
	wsURL     string
	client    *http.Client
	logger    *zap.Logger
	wsConn    *websocket.Conn
	wsDone    chan struct{}
	callbacks []func(pair string, price float64)
	latest    map[string]domain.PriceQuote
	mu        sync.Mutex
}

func NewBybitFeed(baseURL, wsURL string, logger *zap.Logger) *BybitFeed {
	if baseURL == "" {
		baseURL = BybitBaseURL
	}
	if wsURL == "" {
		wsURL = BybitWSURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BybitFeed{
		baseURL: baseURL,
		wsURL:   wsURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		wsDone:  make(chan struct{}),
		latest:  map[string]domain.PriceQuote{},
	}
}

func (b *BybitFeed) OnPriceUpdate(callback func(pair string, price float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// Snapshot returns a copy of the latest quotes for all seen pairs.
func (b *BybitFeed) Snapshot() domain.PriceSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := make(domain.PriceSnapshot, len(b.latest))
	for pair, q := range b.latest {
		snap[pair] = q
	}
	return snap
}

// FetchPrice pulls the current last price over REST, used to prime the
// snapshot before the websocket delivers its first tick.
func (b *BybitFeed) FetchPrice(ctx context.Context, pair string) (float64, error) {
	url := fmt.Sprintf("%s/v5/market/tickers?category=linear&symbol=%s", b.baseURL, pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []struct {
				Symbol    string `json:"symbol"`
				LastPrice string `json:"lastPrice"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if body.RetCode != 0 {
		return 0, fmt.Errorf("bybit error %d: %s", body.RetCode, body.RetMsg)
	}
	if len(body.Result.List) == 0 {
		return 0, fmt.Errorf("no ticker for %s", pair)
	}

	price, err := strconv.ParseFloat(body.Result.List[0].LastPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("bad last price for %s: %w", pair, err)
	}

	b.record(pair, price)
	return price, nil
}

func (b *BybitFeed) Subscribe(pairs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.wsConn == nil {
		c, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
		if err != nil {
			return err
		}
		b.wsConn = c
		go b.readLoop(c)
	}

	return b.subscribe(pairs)
}

func (b *BybitFeed) subscribe(pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	args := make([]interface{}, len(pairs))
	for i, p := range pairs {
		args[i] = "tickers." + p
	}
	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": args,
	}
	return b.wsConn.WriteJSON(subMsg)
}

func (b *BybitFeed) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wsConn == nil {
		return nil
	}
	err := b.wsConn.Close()
	b.wsConn = nil
	return err
}

func (b *BybitFeed) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		b.mu.Lock()
		if b.wsConn == conn {
			b.wsConn = nil
		}
		b.mu.Unlock()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			b.logger.Warn("Price feed read error", zap.Error(err))
			return
		}

		var event struct {
			Topic string `json:"topic"`
			Data  struct {
				Symbol    string `json:"symbol"`
				LastPrice string `json:"lastPrice"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			b.logger.Warn("Price feed unmarshal error", zap.Error(err))
			continue
		}

		if !strings.HasPrefix(event.Topic, "tickers.") {
			continue
		}
		// Ticker deltas omit unchanged fields; skip frames without a price.
		if event.Data.LastPrice == "" {
			continue
		}

		price, err := strconv.ParseFloat(event.Data.LastPrice, 64)
		if err != nil || price <= 0 {
			continue
		}

		pair := event.Data.Symbol
		if pair == "" {
			pair = strings.TrimPrefix(event.Topic, "tickers.")
		}
		b.record(pair, price)

		b.mu.Lock()
		callbacks := make([]func(string, float64), len(b.callbacks))
		copy(callbacks, b.callbacks)
		b.mu.Unlock()

		for _, cb := range callbacks {
			cb(pair, price)
		}
	}
}

func (b *BybitFeed) record(pair string, price float64) {
	b.mu.Lock()
	b.latest[pair] = domain.PriceQuote{Price: price, Timestamp: time.Now()}
	b.mu.Unlock()
}
