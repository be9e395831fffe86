package types

import (
	"encoding/json"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"150", 15000, false},
		{"150.00", 15000, false},
		{"180.5", 18050, false},
		{"0.07", 7, false},
		{"-12.30", -1230, false},
		{"1.234", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"12.", 0, true},
		{"99999999.99", MaxAmount, false},
		{"--5", 0, true},
		{"-+5", 0, true},
		{"+5", 0, true},
		{"1.-5", 0, true},
		{"1.+5", 0, true},
		{"1. 5", 0, true},
		{"184467440737095517", 0, true},
		{"100000000", 0, true},
		{"1e3", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMoney(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMoney(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMoney(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got.Amount != tt.want {
			t.Errorf("ParseMoney(%q) = %d, want %d", tt.in, got.Amount, tt.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var body struct {
		Fare Money `json:"fare"`
	}
	if err := json.Unmarshal([]byte(`{"fare": 150}`), &body); err != nil {
		t.Fatalf("number: %v", err)
	}
	if body.Fare.String() != "150.00" {
		t.Fatalf("expected 150.00, got %s", body.Fare)
	}
	if err := json.Unmarshal([]byte(`{"fare": "180.00"}`), &body); err != nil {
		t.Fatalf("string: %v", err)
	}
	out, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"fare":"180.00"}` {
		t.Fatalf("unexpected json: %s", out)
	}
}
