package util

import (
	"reflect"
	"testing"
)

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("812.0000", -1); got != 812 {
		t.Fatalf("unexpected %v", got)
	}
	if got := ParseFloatDefault("-", -1); got != -1 {
		t.Fatalf("expected default, got %v", got)
	}
	if got := ParseFloatDefault(" ", 3); got != 3 {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestSplitFloats(t *testing.T) {
	got, err := SplitFloats("0.10, 0.15,,0.2")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !reflect.DeepEqual(got, []float64{0.10, 0.15, 0.2}) {
		t.Fatalf("unexpected %v", got)
	}
	if _, err := SplitFloats("0.1,abc"); err == nil {
		t.Fatalf("expected error")
	}
	if got, _ := SplitFloats(""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
