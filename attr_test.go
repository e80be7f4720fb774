package uat978

import (
	"testing"
	"time"
)

func TestParseAttributes(t *testing.T) {
	golden := []struct {
		raw    string
		kind   byte
		time   string
		signal string
		sync   string
	}{
		{
			raw:    "1622222222.123456.F.1250000.00",
			kind:   KindFISB,
			time:   "1622222222.123",
			signal: "1.25",
			sync:   "00",
		},
		{
			raw:    "1622222222.000456.A.500000.000",
			kind:   KindADSB,
			time:   "1622222222.000",
			signal: "0.5",
			sync:   "000",
		},
		{
			raw:    "1622222222.999999.A.2000000.04",
			kind:   KindADSB,
			time:   "1622222222.999",
			signal: "2.0",
			sync:   "04",
		},
		// Fields past the fifth are padding and ignored.
		{
			raw:    "1622222222.123456.F.1250000.3.x",
			kind:   KindFISB,
			time:   "1622222222.123",
			signal: "1.25",
			sync:   "3",
		},
	}
	for _, g := range golden {
		attr, err := ParseAttributes(g.raw)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", g.raw, err)
			continue
		}
		if attr.Kind != g.kind {
			t.Errorf("%q: kind mismatch; expected %c, got %c", g.raw, g.kind, attr.Kind)
		}
		if attr.Time != g.time {
			t.Errorf("%q: time mismatch; expected %q, got %q", g.raw, g.time, attr.Time)
		}
		if attr.SignalText != g.signal {
			t.Errorf("%q: signal mismatch; expected %q, got %q", g.raw, g.signal, attr.SignalText)
		}
		if attr.SyncErrors != g.sync {
			t.Errorf("%q: sync errors mismatch; expected %q, got %q", g.raw, g.sync, attr.SyncErrors)
		}
		if attr.Raw != g.raw {
			t.Errorf("%q: raw header not preserved", g.raw)
		}
	}
}

func TestParseAttributesTimestamp(t *testing.T) {
	attr, err := ParseAttributes("1622222222.123456.F.1250000.00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Unix(1622222222, 123456000)
	if !attr.Timestamp.Equal(want) {
		t.Errorf("timestamp mismatch; expected %v, got %v", want, attr.Timestamp)
	}
}

func TestParseAttributesInvalid(t *testing.T) {
	invalid := []string{
		"",
		"1622222222.123456.F",         // too few fields.
		"abc.123456.F.1250000.00",     // bad seconds.
		"1622222222.xyz.F.1250000.00", // bad microseconds.
		"1622222222.123456.F.zz.00",   // bad signal strength.
	}
	for _, raw := range invalid {
		if _, err := ParseAttributes(raw); err == nil {
			t.Errorf("%q: expected error", raw)
		}
	}
}
