package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCalculateProfit(t *testing.T) {
	tests := []struct {
		name          string
		recvAmount    decimal.Decimal
		recvRate      decimal.Decimal
		givenAmount   decimal.Decimal
		givenRate     decimal.Decimal
		expectProfit  decimal.Decimal
		expectPercent decimal.Decimal
	}{
		{
			name:          "btc bought below market",
			recvAmount:    decimal.NewFromInt(1),
			recvRate:      decimal.NewFromInt(5_000_000),
			givenAmount:   decimal.NewFromInt(4_800_000),
			givenRate:     decimal.NewFromInt(1),
			expectProfit:  decimal.NewFromInt(200_000),
			expectPercent: decimal.RequireFromString("4.17"),
		},
		{
			name:          "loss",
			recvAmount:    decimal.NewFromInt(100),
			recvRate:      decimal.NewFromInt(90),
			givenAmount:   decimal.NewFromInt(10_000),
			givenRate:     decimal.NewFromInt(1),
			expectProfit:  decimal.NewFromInt(-1000),
			expectPercent: decimal.NewFromInt(-10),
		},
		{
			name:          "nothing given",
			recvAmount:    decimal.NewFromInt(5),
			recvRate:      decimal.NewFromInt(100),
			givenAmount:   decimal.Zero,
			givenRate:     decimal.NewFromInt(1),
			expectProfit:  decimal.NewFromInt(500),
			expectPercent: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CalculateProfit(tt.recvAmount, tt.recvRate, tt.givenAmount, tt.givenRate)
			if !p.RUB.Equal(tt.expectProfit) {
				t.Errorf("expected profit %s, got %s", tt.expectProfit, p.RUB)
			}
			if !p.Percent.Equal(tt.expectPercent) {
				t.Errorf("expected percent %s, got %s", tt.expectPercent, p.Percent)
			}
		})
	}
}

func TestOrder_DeltasAndCompensation(t *testing.T) {
	o := &Order{
		ServiceID:       "svc-1",
		Type:            OrderTypeExchange,
		ReceivedAssetID: "btc",
		ReceivedAmount:  decimal.NewFromInt(1),
		GivenAssetID:    "rub",
		GivenAmount:     decimal.NewFromInt(4_800_000),
	}

	deltas := o.Deltas()
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}
	if deltas[0].AssetID != "btc" || !deltas[0].Amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("unexpected received delta %+v", deltas[0])
	}
	if deltas[1].AssetID != "rub" || !deltas[1].Amount.Equal(decimal.NewFromInt(-4_800_000)) {
		t.Errorf("unexpected given delta %+v", deltas[1])
	}

	comp := o.CompensatingDeltas()
	for i := range deltas {
		if !comp[i].Amount.Add(deltas[i].Amount).IsZero() {
			t.Errorf("compensating delta %d does not cancel: %s + %s", i, comp[i].Amount, deltas[i].Amount)
		}
	}
}

func TestOrder_SetSignedAmount(t *testing.T) {
	o := &Order{ServiceID: "svc-1"}

	o.SetSignedAmount("usdt", decimal.NewFromInt(-50))
	if o.GivenAssetID != "usdt" || !o.GivenAmount.Equal(decimal.NewFromInt(50)) || o.ReceivedAssetID != "" {
		t.Fatalf("negative change should land in given leg, got %+v", o)
	}

	o.SetSignedAmount("usdt", decimal.NewFromInt(70))
	if o.ReceivedAssetID != "usdt" || !o.ReceivedAmount.Equal(decimal.NewFromInt(70)) || o.GivenAssetID != "" {
		t.Fatalf("positive change should land in received leg, got %+v", o)
	}

	deltas := o.Deltas()
	if len(deltas) != 1 || !deltas[0].Amount.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected single +70 delta, got %+v", deltas)
	}
}

func TestOrder_MarkDeleted(t *testing.T) {
	o := &Order{}
	now := time.Now()
	o.MarkDeleted(now)

	if !o.IsDeleted || o.DeletedAt == nil || !o.DeletedAt.Equal(now) {
		t.Fatalf("expected order marked deleted at %v, got %+v", now, o)
	}
}

func TestDirection_Sign(t *testing.T) {
	tests := []struct {
		dir     Direction
		want    int
		wantErr bool
	}{
		{DirectionDeposit, 1, false},
		{DirectionIn, 1, false},
		{DirectionWithdraw, -1, false},
		{DirectionOut, -1, false},
		{Direction("sideways"), 0, true},
	}

	for _, tt := range tests {
		got, err := tt.dir.Sign()
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: unexpected error state %v", tt.dir, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected sign %d, got %d", tt.dir, tt.want, got)
		}
	}

	if !DirectionDeposit.ValidFor(OrderTypeAdminAction) || DirectionIn.ValidFor(OrderTypeAdminAction) {
		t.Fatal("deposit/withdraw belong to admin_action only")
	}
	if !DirectionOut.ValidFor(OrderTypeAdminIO) || DirectionWithdraw.ValidFor(OrderTypeAdminIO) {
		t.Fatal("in/out belong to admin_io only")
	}
}
