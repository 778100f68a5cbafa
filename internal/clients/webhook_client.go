package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/config"
)

// ShipmentPayload is the JSON body posted to the external shipping API when
// an order transitions to shipped.
type ShipmentPayload struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// HTTPShipmentClient notifies the external shipping integration over HTTP.
type HTTPShipmentClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewHTTPShipmentClient creates a new HTTP-based shipment notification client.
func NewHTTPShipmentClient(cfg config.WebhookConfig) *HTTPShipmentClient {
	return &HTTPShipmentClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.WithField("component", "shipment-client"),
	}
}

// NotifyOrderShipped posts the shipment payload. Any non-2xx response is an
// error; the caller owns retries.
func (c *HTTPShipmentClient) NotifyOrderShipped(ctx context.Context, payload *ShipmentPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := c.baseURL + "/posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(log.Fields{
			"order_id": payload.OrderID,
			"error":    err.Error(),
		}).Error("Shipment webhook request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("shipment webhook returned status %d", resp.StatusCode)
	}

	c.logger.WithFields(log.Fields{
		"order_id": payload.OrderID,
		"status":   resp.StatusCode,
	}).Info("Shipment webhook delivered")

	return nil
}
