// Package razorpay implements the payment gateway against the Razorpay
// Orders API.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/vaahanlabs/pitstop/internal/payment/domain"
	"github.com/vaahanlabs/pitstop/pkg/observability"
)

// Client talks to the Razorpay Orders API. Outbound calls go through a
// circuit breaker so a gateway outage fails fast instead of tying up
// request handlers.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*domain.GatewayOrder]
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewClient creates a gateway client.
func NewClient(baseURL, keyID, keySecret string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		metrics:    observability.NoopMetrics{},
	}
	c.breaker = gobreaker.NewCircuitBreaker[*domain.GatewayOrder](gobreaker.Settings{
		Name:        "razorpay",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("payment gateway breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// WithMetrics sets the collector that receives gateway call metrics.
func (c *Client) WithMetrics(metrics observability.Metrics) *Client {
	c.metrics = metrics
	return c
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder registers an order with the gateway. The amount is converted
// from major to minor units (rupees to paise) before sending.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency string) (*domain.GatewayOrder, error) {
	receipt := "rcpt_" + uuid.NewString()[:8]

	timer := observability.StartTimer("gateway.create_order").
		WithMetrics(c.metrics).
		WithTags(observability.T("currency", currency))
	order, err := c.breaker.Execute(func() (*domain.GatewayOrder, error) {
		return c.createOrder(ctx, createOrderRequest{
			Amount:   int64(math.Round(amount * 100)),
			Currency: currency,
			Receipt:  receipt,
		})
	})
	timer.StopWithError(err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.ErrGatewayUnavailable
		}
		return nil, err
	}
	return order, nil
}

func (c *Client) createOrder(ctx context.Context, payload createOrderRequest) (*domain.GatewayOrder, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded createOrderResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("parse gateway response: %w", err)
	}

	c.logger.Info("gateway order created", "gateway_order_id", decoded.ID, "amount", decoded.Amount)
	return &domain.GatewayOrder{
		ID:       decoded.ID,
		Amount:   decoded.Amount,
		Currency: decoded.Currency,
		Receipt:  decoded.Receipt,
	}, nil
}

// VerifySignature authenticates the checkout callback. The gateway signs
// "<gatewayOrderID>|<paymentID>" with HMAC-SHA256 under the key secret.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		c.metrics.Counter(observability.MetricPaymentsFailed, 1)
		return domain.ErrSignatureMismatch
	}
	c.metrics.Counter(observability.MetricPaymentsVerified, 1)
	return nil
}

var _ domain.Gateway = (*Client)(nil)
