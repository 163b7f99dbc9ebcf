package escrow

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func Test_priceCompatible(t *testing.T) {
	type args struct {
		rateA string
		slipA string
		rateB string
		slipB string
	}
	tests := []struct {
		name string
		args args
		want bool
	}{
		{
			name: "exact reciprocal rates",
			args: args{rateA: "2.0", slipA: "0", rateB: "0.5", slipB: "0"},
			want: true,
		}, {
			name: "deviation within both slippages",
			args: args{rateA: "2.0", slipA: "0.05", rateB: "0.51", slipB: "0.05"},
			want: true,
		}, {
			name: "deviation exceeds origin slippage",
			args: args{rateA: "2.0", slipA: "0.01", rateB: "0.51", slipB: "0.05"},
			want: false,
		}, {
			name: "deviation exceeds counterpart slippage",
			args: args{rateA: "2.0", slipA: "0.05", rateB: "0.51", slipB: "0.01"},
			want: false,
		}, {
			name: "wildly incompatible rates",
			args: args{rateA: "2.0", slipA: "0.05", rateB: "2.0", slipB: "0.05"},
			want: false,
		}, {
			name: "unit rates",
			args: args{rateA: "1.0", slipA: "0", rateB: "1.0", slipB: "0"},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := priceCompatible(
				math.LegacyMustNewDecFromStr(tt.args.rateA),
				math.LegacyMustNewDecFromStr(tt.args.slipA),
				math.LegacyMustNewDecFromStr(tt.args.rateB),
				math.LegacyMustNewDecFromStr(tt.args.slipB),
			)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_convertAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   string
		want   int64
	}{
		{name: "whole multiple", amount: 1000, rate: "2.0", want: 2000},
		{name: "fractional rate", amount: 1000, rate: "0.5", want: 500},
		{name: "truncates toward zero", amount: 5, rate: "0.5", want: 2},
		{name: "rounds nothing up", amount: 1, rate: "0.9", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertAmount(math.NewInt(tt.amount), math.LegacyMustNewDecFromStr(tt.rate))
			assert.True(t, math.NewInt(tt.want).Equal(got), "want %d, got %s", tt.want, got)
		})
	}
}

func Test_feeCut(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		num    uint64
		denom  uint64
		want   int64
	}{
		{name: "basis points", amount: 10_000, num: 3, denom: 1000, want: 30},
		{name: "truncates", amount: 999, num: 1, denom: 1000, want: 0},
		{name: "zero numerator disables", amount: 10_000, num: 0, denom: 1000, want: 0},
		{name: "zero denominator disables", amount: 10_000, num: 3, denom: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feeCut(math.NewInt(tt.amount), tt.num, tt.denom)
			assert.Equal(t, math.NewInt(tt.want), got)
		})
	}
}
