package payout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/padala-next/internal/config"

	"github.com/shopspring/decimal"
)

func newGCashServer(t *testing.T, tokenCalls *int32, payoutStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			atomic.AddInt32(tokenCalls, 1)
			_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
		case "/payouts":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			amount := body["amount"].(map[string]interface{})
			if amount["value"] != "246.00" || amount["currency"] != "PHP" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(payoutStatus)
			if payoutStatus == http.StatusOK {
				_, _ = w.Write([]byte(`{"payout_id":"GC-123","status":"processing","processed_at":"2024-03-11T01:00:00Z"}`))
				return
			}
			_, _ = w.Write([]byte(`{"error":"insufficient balance"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testRequest() Request {
	return Request{
		ReferenceID:   "REST_1_1710118800000",
		AccountType:   AccountTypeBank,
		AccountNumber: "0012-3456-78",
		AccountName:   "Jollibee Makati",
		Amount:        decimal.RequireFromString("246"),
		Description:   "Restaurant settlement for order PD-1",
	}
}

func TestGCashPayoutCachesToken(t *testing.T) {
	var tokenCalls int32
	srv := newGCashServer(t, &tokenCalls, http.StatusOK)
	defer srv.Close()

	client, err := NewGCashClient(config.GCashConfig{
		APIURL: srv.URL, MerchantID: "m-1", ClientID: "cid", ClientSecret: "secret",
	}, time.Second)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		res, err := client.Payout(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("payout failed: %v", err)
		}
		if res.PayoutID != "GC-123" || res.ProcessedAt == nil {
			t.Fatalf("unexpected result: %+v", res)
		}
	}
	if got := atomic.LoadInt32(&tokenCalls); got != 1 {
		t.Fatalf("token should be cached, got %d calls", got)
	}
}

func TestGCashPayoutGatewayError(t *testing.T) {
	var tokenCalls int32
	srv := newGCashServer(t, &tokenCalls, http.StatusUnprocessableEntity)
	defer srv.Close()

	client, err := NewGCashClient(config.GCashConfig{
		APIURL: srv.URL, MerchantID: "m-1", ClientID: "cid", ClientSecret: "secret",
	}, time.Second)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	_, err = client.Payout(context.Background(), testRequest())
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("want response invalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient balance") {
		t.Fatalf("error should carry gateway message: %v", err)
	}
}

func TestNewGCashClientValidatesConfig(t *testing.T) {
	if _, err := NewGCashClient(config.GCashConfig{APIURL: "https://api.gcash.test"}, 0); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("want config invalid, got %v", err)
	}
}

func TestSandboxPayout(t *testing.T) {
	res, err := NewSandbox().Payout(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("sandbox payout failed: %v", err)
	}
	if !strings.HasPrefix(res.PayoutID, "SBX-") || len(res.PayoutID) != 20 {
		t.Fatalf("unexpected payout id: %s", res.PayoutID)
	}

	req := testRequest()
	req.AccountNumber = ""
	if _, err := NewSandbox().Payout(context.Background(), req); !errors.Is(err, ErrRequestInvalid) {
		t.Fatalf("want request invalid, got %v", err)
	}
	req = testRequest()
	req.Amount = decimal.Zero
	if _, err := NewSandbox().Payout(context.Background(), req); !errors.Is(err, ErrRequestInvalid) {
		t.Fatalf("want request invalid for zero amount, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	gw, err := NewFromConfig(config.PayoutConfig{Provider: "sandbox"})
	if err != nil {
		t.Fatalf("sandbox provider failed: %v", err)
	}
	if _, ok := gw.(*Sandbox); !ok {
		t.Fatalf("expected sandbox, got %T", gw)
	}
	if _, err := NewFromConfig(config.PayoutConfig{Provider: "maya"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("unknown provider should fail, got %v", err)
	}
}
