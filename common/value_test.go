package common_test

import (
	"testing"

	"github.com/ipmi-atca/shelfmon/common"
)

func TestValueRoundedFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.0},
		{1.004, 1.0},
		{1.2345, 1.23},
		{1.236, 1.24},
		{0, 0},
	}

	for _, c := range cases {
		got := common.Float(c.in).Rounded()
		if got.F != c.want {
			t.Errorf("Float(%v).Rounded() = %v, want %v", c.in, got.F, c.want)
		}
	}
}

func TestValueRoundedLeavesNonFloatAlone(t *testing.T) {
	if v := common.Int(42).Rounded(); v.I != 42 {
		t.Errorf("Int(42).Rounded().I = %d, want 42", v.I)
	}
	if v := common.String("abcd").Rounded(); v.S != "abcd" {
		t.Errorf("String round-trip changed: got %q", v.S)
	}
}
