package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyRoundsHalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"-1.005": "-1.01",
		"54":     "54.00",
		"2.344":  "2.34",
	}
	for in, want := range cases {
		if got := MustMoney(in).String(); got != want {
			t.Fatalf("money %s want %s got %s", in, want, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Amount: MustMoney("246")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"amount":"246.00"}` {
		t.Fatalf("unexpected json: %s", raw)
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte(`12.345`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.String() != "12.35" {
		t.Fatalf("want 12.35 got %s", fromNumber.String())
	}

	var fromString Money
	if err := json.Unmarshal([]byte(`"50"`), &fromString); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if !fromString.Equal(MustMoney("50").Decimal) {
		t.Fatalf("want 50 got %s", fromString.String())
	}
}

func TestMoneyAdd(t *testing.T) {
	got := MustMoney("246.00").Add(MustMoney("54.00"))
	if got.String() != "300.00" {
		t.Fatalf("want 300.00 got %s", got.String())
	}
}
