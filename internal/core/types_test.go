package core

import (
	"math"
	"testing"
	"time"
)

func validBar() Bar {
	return Bar{
		Date:   time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Open:   100,
		High:   102,
		Low:    99,
		Close:  101,
		Volume: 5000,
	}
}

func TestBarValidate_OK(t *testing.T) {
	if err := validBar().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestBarValidate_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Bar)
	}{
		{"nan close", func(b *Bar) { b.Close = math.NaN() }},
		{"inf high", func(b *Bar) { b.High = math.Inf(1) }},
		{"negative open", func(b *Bar) { b.Open = -1 }},
		{"negative volume", func(b *Bar) { b.Volume = -10 }},
		{"low above close", func(b *Bar) { b.Low = 100.5 }},
		{"high below open", func(b *Bar) { b.High = 99.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBar()
			tt.mutate(&b)
			if err := b.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestStrategyConfigSide(t *testing.T) {
	if (StrategyConfig{}).Side() != DirectionLong {
		t.Error("empty direction should default to long")
	}
	if (StrategyConfig{Direction: DirectionShort}).Side() != DirectionShort {
		t.Error("short direction should be preserved")
	}
	if (StrategyConfig{Direction: "sideways"}).Side() != DirectionLong {
		t.Error("unknown direction should default to long")
	}
}

func TestPositionUnrealizedPct(t *testing.T) {
	long := Position{Direction: DirectionLong, EntryPrice: 100}
	if got := long.UnrealizedPct(105); got != 5 {
		t.Errorf("long UnrealizedPct(105) = %v, want 5", got)
	}
	if got := long.UnrealizedPct(98); got != -2 {
		t.Errorf("long UnrealizedPct(98) = %v, want -2", got)
	}

	short := Position{Direction: DirectionShort, EntryPrice: 100}
	if got := short.UnrealizedPct(95); got != 5 {
		t.Errorf("short UnrealizedPct(95) = %v, want 5", got)
	}
	if got := short.UnrealizedPct(103); got != -3 {
		t.Errorf("short UnrealizedPct(103) = %v, want -3", got)
	}

	zero := Position{EntryPrice: 0}
	if got := zero.UnrealizedPct(100); got != 0 {
		t.Errorf("zero entry price should yield 0, got %v", got)
	}
}

func TestTradeBuckets(t *testing.T) {
	win := Trade{PnL: 10}
	loss := Trade{PnL: -5}
	flat := Trade{PnL: 0}

	if !win.IsWin() || win.IsLoss() {
		t.Error("positive pnl should be a win only")
	}
	if !loss.IsLoss() || loss.IsWin() {
		t.Error("negative pnl should be a loss only")
	}
	if flat.IsWin() || flat.IsLoss() {
		t.Error("break-even trade should be neither win nor loss")
	}
}
