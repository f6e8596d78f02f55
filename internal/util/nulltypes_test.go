package util

import (
	"testing"
	"time"
)

func TestNullStringFromValue(t *testing.T) {
	if ns := NullStringFromValue("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf("NullStringFromValue(hello) = %+v", ns)
	}
	if ns := NullStringFromValue(""); ns.Valid {
		t.Errorf("NullStringFromValue(\"\") should be invalid, got %+v", ns)
	}
}

func TestNullStringFromPtr(t *testing.T) {
	s := ""
	if ns := NullStringFromPtr(&s); !ns.Valid {
		t.Error("NullStringFromPtr(&\"\") should be valid")
	}
	if ns := NullStringFromPtr(nil); ns.Valid {
		t.Error("NullStringFromPtr(nil) should be invalid")
	}
}

func TestNullTimeFromValue(t *testing.T) {
	now := time.Now()
	nt := NullTimeFromValue(now)
	if !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("NullTimeFromValue = %+v", nt)
	}
}

func TestStringFromNull(t *testing.T) {
	if got := StringFromNull(NullStringFromValue("x")); got != "x" {
		t.Errorf("StringFromNull = %q, want x", got)
	}
	if got := StringFromNull(NullStringFromPtr(nil)); got != "" {
		t.Errorf("StringFromNull(invalid) = %q, want empty", got)
	}
}
