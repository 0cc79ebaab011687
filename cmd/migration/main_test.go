package main

import (
	"strings"
	"testing"
)

func TestParseSteps(t *testing.T) {
	t.Parallel()

	if got, err := parseSteps(nil); err != nil || got != 1 {
		t.Fatalf("default steps: got=%d err=%v", got, err)
	}
	if got, err := parseSteps([]string{" 3 "}); err != nil || got != 3 {
		t.Fatalf("explicit steps: got=%d err=%v", got, err)
	}
	for _, raw := range []string{"0", "-2", "two"} {
		if _, err := parseSteps([]string{raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestWithPreparedBinaryResult(t *testing.T) {
	t.Parallel()

	in := "postgres://u:p@localhost:5432/skater_value?sslmode=disable"
	if got := withPreparedBinaryResult(in, true); !strings.Contains(got, "disable_prepared_binary_result=yes") {
		t.Fatalf("expected flag appended, got %q", got)
	}
	if got := withPreparedBinaryResult(in, false); got != in {
		t.Fatalf("expected url unchanged, got %q", got)
	}
}
