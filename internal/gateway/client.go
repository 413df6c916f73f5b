package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/hosted-checkout/internal"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
)

const (
	defaultAPIVersion = 61
	defaultTimeout    = 30 * time.Second
)

type Config struct {
	BaseURL     string
	APIVersion  int
	MerchantID  string
	APIPassword string
	Timeout     time.Duration
}

// Client talks to the payment gateway REST API. Calls are synchronous and never retried here.
type Client struct {
	baseURL     string
	apiVersion  int
	merchantID  string
	apiPassword string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	apiVersion := config.APIVersion
	if apiVersion <= 0 {
		apiVersion = defaultAPIVersion
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiVersion:  apiVersion,
		merchantID:  config.MerchantID,
		apiPassword: config.APIPassword,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

func (c *Client) MerchantID() string {
	return c.merchantID
}

// HostedCheckoutScriptURL is the gateway's javascript component for the payment page.
func (c *Client) HostedCheckoutScriptURL() string {
	return fmt.Sprintf("%s/checkout/version/%d/checkout.js", c.baseURL, c.apiVersion)
}

type createSessionRequest struct {
	APIOperation string                         `json:"apiOperation"`
	Order        gatewaytypes.OrderRequest      `json:"order"`
	Interaction  gatewaytypes.InteractionConfig `json:"interaction"`
	Customer     gatewaytypes.CustomerInfo      `json:"customer"`
	Billing      gatewaytypes.BillingInfo       `json:"billing"`
}

type createSessionResponse struct {
	Result  string `json:"result"`
	Session struct {
		ID      string `json:"id"`
		Version string `json:"version"`
	} `json:"session"`
	SuccessIndicator string `json:"successIndicator"`
}

type errorResponse struct {
	Result string `json:"result"`
	Error  struct {
		Cause          string `json:"cause"`
		Explanation    string `json:"explanation"`
		Field          string `json:"field"`
		ValidationType string `json:"validationType"`
	} `json:"error"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, order gatewaytypes.OrderRequest, interaction gatewaytypes.InteractionConfig, customer gatewaytypes.CustomerInfo, billing gatewaytypes.BillingInfo) (*gatewaytypes.CheckoutSession, error) {
	if err := order.Validate(); err != nil {
		c.logger.Error("checkout session request validation failed", "error", err, "order_id", order.ID)
		return nil, internal.NewGatewayError("invalid checkout session request", internal.ErrCodeGatewayRejected, err)
	}

	req := createSessionRequest{
		APIOperation: "CREATE_CHECKOUT_SESSION",
		Order:        order,
		Interaction:  interaction,
		Customer:     customer,
		Billing:      billing,
	}

	c.logger.Info("creating checkout session",
		"order_id", order.ID,
		"amount", order.Amount,
		"currency", order.Currency)

	var resp createSessionResponse
	if err := c.do(ctx, http.MethodPost, c.merchantPath("session"), req, &resp); err != nil {
		return nil, err
	}

	if resp.Session.ID == "" || resp.SuccessIndicator == "" {
		c.logger.Error("checkout session response incomplete", "order_id", order.ID, "result", resp.Result)
		return nil, internal.NewGatewayError("gateway returned an incomplete checkout session", internal.ErrCodeGatewayRejected, nil)
	}

	c.logger.Info("checkout session created",
		"order_id", order.ID,
		"session_id", resp.Session.ID)

	return &gatewaytypes.CheckoutSession{
		ID:               resp.Session.ID,
		Version:          resp.Session.Version,
		SuccessIndicator: resp.SuccessIndicator,
	}, nil
}

func (c *Client) RetrieveOrder(ctx context.Context, orderID string) (*gatewaytypes.OrderResult, error) {
	c.logger.Info("retrieving gateway order", "order_id", orderID)

	var result gatewaytypes.OrderResult
	if err := c.do(ctx, http.MethodGet, c.merchantPath("order", url.PathEscape(orderID)), nil, &result); err != nil {
		return nil, err
	}

	c.logger.Info("gateway order retrieved",
		"order_id", orderID,
		"status", result.Status,
		"amount", result.Amount.String(),
		"risk", result.RiskCode())

	return &result, nil
}

func (c *Client) merchantPath(parts ...string) string {
	return fmt.Sprintf("%s/api/rest/version/%d/merchant/%s/%s",
		c.baseURL, c.apiVersion, url.PathEscape(c.merchantID), strings.Join(parts, "/"))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return internal.NewGatewayError("failed to encode gateway request", internal.ErrCodeGatewayRequestFailed, err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return internal.NewGatewayError("failed to create gateway request", internal.ErrCodeGatewayRequestFailed, err)
	}
	httpReq.SetBasicAuth("merchant."+c.merchantID, c.apiPassword)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway request failed", "method", method, "url", endpoint, "error", err)
		return internal.NewGatewayError("payment gateway is unreachable", internal.ErrCodeGatewayRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return internal.NewGatewayError("failed to read gateway response", internal.ErrCodeGatewayRequestFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("gateway returned error status",
			"method", method,
			"url", endpoint,
			"status", resp.StatusCode,
			"response", string(respBody))
		return internal.NewGatewayError(explain(respBody, resp.StatusCode), internal.ErrCodeGatewayRejected, nil)
	}

	var envelope errorResponse
	if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Result == gatewaytypes.ResultError {
		c.logger.Error("gateway rejected request",
			"method", method,
			"url", endpoint,
			"cause", envelope.Error.Cause,
			"field", envelope.Error.Field)
		return internal.NewGatewayError(explain(respBody, resp.StatusCode), internal.ErrCodeGatewayRejected, nil)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		c.logger.Error("failed to decode gateway response", "error", err, "response", string(respBody))
		return internal.NewGatewayError("failed to decode gateway response", internal.ErrCodeGatewayRequestFailed, err)
	}

	return nil
}

// explain turns a gateway error body into a message fit for the shopper.
func explain(body []byte, status int) string {
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Explanation != "" {
			return envelope.Error.Explanation
		}
		if envelope.Error.Cause != "" {
			return fmt.Sprintf("payment gateway error: %s", envelope.Error.Cause)
		}
	}
	return fmt.Sprintf("payment gateway returned status %d", status)
}
