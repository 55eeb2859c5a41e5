package routing

import (
	"errors"
	"testing"
)

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("name", "x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, value := range []string{"", "   ", "\t\n"} {
		err := ValidateRequired("name", value)
		if err == nil {
			t.Errorf("%q should be rejected", value)
			continue
		}
		var verr ValidationError
		if !errors.As(err, &verr) || verr.Field != "name" {
			t.Errorf("error should carry the field name: %v", err)
		}
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("priority", 0); err != nil {
		t.Errorf("zero should pass: %v", err)
	}
	if err := ValidateNonNegative("priority", -1); err == nil {
		t.Error("-1 should be rejected")
	}
}

func TestValidateInSet(t *testing.T) {
	valid := []string{"a", "b"}
	if err := ValidateInSet("op", "b", valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateInSet("op", "", valid); err != nil {
		t.Errorf("empty value passes, pairing with ValidateRequired is the caller's job: %v", err)
	}
	if err := ValidateInSet("op", "c", valid); err == nil {
		t.Error("value outside the set should be rejected")
	}
}

func TestContainsFold(t *testing.T) {
	list := []string{"Riyadh", "jeddah"}
	if !containsFold(list, "RIYADH") || !containsFold(list, "Jeddah") {
		t.Error("matching should be case-insensitive")
	}
	if containsFold(list, "dammam") || containsFold(nil, "riyadh") {
		t.Error("missing values should not match")
	}
}

func TestIntersectsFold(t *testing.T) {
	if !intersectsFold([]string{"Corporate", "tax"}, []string{"TAX", "family"}) {
		t.Error("shared element should intersect case-insensitively")
	}
	if intersectsFold([]string{"corporate"}, []string{"family"}) {
		t.Error("disjoint lists should not intersect")
	}
	if intersectsFold(nil, []string{"x"}) || intersectsFold([]string{"x"}, nil) {
		t.Error("empty lists never intersect")
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{float64(1.5), 1.5, true},
		{float32(2), 2, true},
		{int(3), 3, true},
		{int32(4), 4, true},
		{int64(5), 5, true},
		{"6.25", 6.25, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat64(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("toFloat64(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStringify(t *testing.T) {
	if stringify(nil) != "" {
		t.Error("nil should stringify to empty")
	}
	if stringify("x") != "x" {
		t.Error("strings pass through")
	}
	if stringify(42) != "42" {
		t.Error("numbers are rendered")
	}
}

func TestValueList(t *testing.T) {
	got := valueList("a, b ,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("comma string: got %v, want %v", got, want)
		}
	}

	got = valueList([]interface{}{"x", 7})
	if len(got) != 2 || got[0] != "x" || got[1] != "7" {
		t.Errorf("mixed array: got %v", got)
	}

	got = valueList([]string{"p", "q"})
	if len(got) != 2 || got[0] != "p" {
		t.Errorf("string array: got %v", got)
	}

	got = valueList(9)
	if len(got) != 1 || got[0] != "9" {
		t.Errorf("scalar: got %v", got)
	}
}
