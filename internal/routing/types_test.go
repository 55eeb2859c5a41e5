package routing

import (
	"errors"
	"testing"
	"time"
)

func TestParseRequestType(t *testing.T) {
	for _, rt := range RequestTypes() {
		got, err := ParseRequestType(string(rt))
		if err != nil || got != rt {
			t.Errorf("ParseRequestType(%q) = (%v, %v)", rt, got, err)
		}
	}

	// Input is normalized, not rejected, for case and whitespace.
	if got, err := ParseRequestType("  Legal_Opinion "); err != nil || got != RequestTypeLegalOpinion {
		t.Errorf("got (%v, %v)", got, err)
	}

	for _, s := range []string{"", "arbitration", "consultations"} {
		if _, err := ParseRequestType(s); !errors.Is(err, ErrUnknownRequestType) {
			t.Errorf("ParseRequestType(%q) = %v, want ErrUnknownRequestType", s, err)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{StrategyRoundRobin, StrategyLoadBalanced, StrategySpecialized, StrategyManual} {
		got, err := ParseStrategy(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = (%v, %v)", s, got, err)
		}
	}

	if got, err := ParseStrategy(" ROUND_ROBIN "); err != nil || got != StrategyRoundRobin {
		t.Errorf("got (%v, %v)", got, err)
	}

	// No silent fallback to manual.
	for _, s := range []string{"", "weighted", "roundrobin"} {
		if _, err := ParseStrategy(s); !errors.Is(err, ErrUnknownStrategy) {
			t.Errorf("ParseStrategy(%q) = %v, want ErrUnknownStrategy", s, err)
		}
	}
}

func TestDefaultSLA(t *testing.T) {
	if sla := RequestTypeCall.DefaultSLA(); sla.Response != 15*time.Minute {
		t.Errorf("call response target = %v", sla.Response)
	}
	if sla := RequestTypeLitigation.DefaultSLA(); sla.Resolution != 30*24*time.Hour {
		t.Errorf("litigation resolution target = %v", sla.Resolution)
	}
	for _, rt := range RequestTypes() {
		sla := rt.DefaultSLA()
		if sla.Response <= 0 || sla.Resolution < sla.Response {
			t.Errorf("%s SLA looks wrong: %+v", rt, sla)
		}
	}
}
