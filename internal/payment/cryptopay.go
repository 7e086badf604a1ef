// Package payment — клиент Crypto Pay API (@CryptoBot).
// Создаёт инвойсы и опрашивает их статус. Сетевые сбои шлюза мапятся
// в ErrGatewayUnavailable: для вызывающего это «неизвестно, спроси позже»,
// а НЕ «не оплачено».
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"serotonyl.ru/signal-bot/internal/config"
	"serotonyl.ru/signal-bot/internal/market"
)

// ErrGatewayUnavailable — платёжный шлюз не ответил или ответил ошибкой сервиса.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ErrGatewayRejected — шлюз ответил, но отверг запрос (ok:false): плохой
// токен, несуществующий инвойс. Повтор такой запрос не вылечит.
var ErrGatewayRejected = errors.New("payment gateway rejected the request")

// Статусы инвойса.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusExpired = "expired"
)

// Invoice — внутреннее представление инвойса Crypto Pay.
type Invoice struct {
	ID     int64
	Status string
	Asset  string
	Amount string
	PayURL string
}

// Client — клиент платёжного шлюза.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	retry   market.Retrier
}

// NewClient создаёт клиент с токеном и политикой повторов из конфига.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		token:   cfg.CryptoPayToken,
		baseURL: strings.TrimRight(cfg.CryptoPayURL, "/"),
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		retry:   market.Retrier{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
	}
}

// remoteInvoice — инвойс в формате ответа Crypto Pay.
type remoteInvoice struct {
	InvoiceID     int64  `json:"invoice_id"`
	Status        string `json:"status"`
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	PayURL        string `json:"pay_url"`
	BotInvoiceURL string `json:"bot_invoice_url"`
}

// mapStatus переводит статус Crypto Pay во внутренний.
// У Crypto Pay неоплаченный инвойс называется "active".
func mapStatus(remote string) string {
	switch remote {
	case "active":
		return StatusPending
	case "paid":
		return StatusPaid
	case "expired":
		return StatusExpired
	default:
		return StatusPending
	}
}

func toInvoice(r remoteInvoice) *Invoice {
	payURL := r.PayURL
	if payURL == "" {
		payURL = r.BotInvoiceURL
	}
	return &Invoice{
		ID:     r.InvoiceID,
		Status: mapStatus(r.Status),
		Asset:  r.Asset,
		Amount: r.Amount,
		PayURL: payURL,
	}
}

// call выполняет один запрос к API и декодирует обёртку {ok, result}.
func (c *Client) call(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Crypto-Pay-API-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: статус %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var envelope struct {
		OK     bool            `json:"ok"`
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%w: %s", ErrGatewayRejected, string(envelope.Error))
	}

	return json.Unmarshal(envelope.Result, result)
}

// CreateInvoice создаёт инвойс на amount в валюте asset.
// Инвойс живёт один час.
func (c *Client) CreateInvoice(ctx context.Context, amount float64, asset, description string) (*Invoice, error) {
	body := map[string]interface{}{
		"asset":          asset,
		"amount":         fmt.Sprintf("%.2f", amount),
		"description":    description,
		"hidden_message": "Thank you for your payment!",
		"expires_in":     3600,
	}

	var raw remoteInvoice
	err := c.retry.Do(ctx, "cryptopay.create_invoice", func() error {
		return c.call(ctx, http.MethodPost, "/createInvoice", body, &raw)
	})
	if err != nil {
		return nil, err
	}
	return toInvoice(raw), nil
}

// GetInvoice возвращает текущее состояние инвойса.
func (c *Client) GetInvoice(ctx context.Context, invoiceID int64) (*Invoice, error) {
	var raw struct {
		Items []remoteInvoice `json:"items"`
	}
	endpoint := fmt.Sprintf("/getInvoices?invoice_ids=%d", invoiceID)
	err := c.retry.Do(ctx, "cryptopay.get_invoice", func() error {
		return c.call(ctx, http.MethodGet, endpoint, nil, &raw)
	})
	if err != nil {
		return nil, err
	}
	if len(raw.Items) == 0 {
		return nil, fmt.Errorf("инвойс %d не найден", invoiceID)
	}
	return toInvoice(raw.Items[0]), nil
}
