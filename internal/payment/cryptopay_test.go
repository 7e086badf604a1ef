package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapStatus(t *testing.T) {
	// У Crypto Pay неоплаченный инвойс называется "active"
	assert.Equal(t, StatusPending, mapStatus("active"))
	assert.Equal(t, StatusPaid, mapStatus("paid"))
	assert.Equal(t, StatusExpired, mapStatus("expired"))
	// Неизвестный статус трактуем как "ещё не оплачено", не как отказ
	assert.Equal(t, StatusPending, mapStatus("something-new"))
}

func TestToInvoicePayURLFallback(t *testing.T) {
	inv := toInvoice(remoteInvoice{
		InvoiceID:     42,
		Status:        "active",
		Asset:         "USDT",
		Amount:        "50.00",
		BotInvoiceURL: "https://t.me/CryptoBot?start=IVxyz",
	})

	assert.Equal(t, int64(42), inv.ID)
	assert.Equal(t, StatusPending, inv.Status)
	assert.Equal(t, "https://t.me/CryptoBot?start=IVxyz", inv.PayURL)

	inv = toInvoice(remoteInvoice{PayURL: "https://pay.crypt.bot/inv"})
	assert.Equal(t, "https://pay.crypt.bot/inv", inv.PayURL)
}

func testClient(srv *httptest.Server) *Client {
	return &Client{baseURL: srv.URL, http: srv.Client()}
}

// ok:false — это отказ шлюза (плохой токен, чужой инвойс), а не
// «попробуй позже»: пользователю нельзя обещать, что повтор поможет.
func TestCallRejectionIsNotOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"ok":false,"error":{"code":401,"name":"UNAUTHORIZED"}}`)
	}))
	defer srv.Close()

	var out remoteInvoice
	err := testClient(srv).call(context.Background(), http.MethodGet, "/getInvoices", nil, &out)
	assert.ErrorIs(t, err, ErrGatewayRejected)
	assert.NotErrorIs(t, err, ErrGatewayUnavailable)
}

func TestCallServerErrorIsOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out remoteInvoice
	err := testClient(srv).call(context.Background(), http.MethodGet, "/getInvoices", nil, &out)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.NotErrorIs(t, err, ErrGatewayRejected)
}
