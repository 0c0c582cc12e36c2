package govisa

import (
	"strings"
	"testing"
)

func TestStatus_Succeeded(t *testing.T) {
	if !StatusSuccess.Succeeded() {
		t.Error("StatusSuccess should succeed")
	}
	if StatusErrorTimeout.Succeeded() {
		t.Error("StatusErrorTimeout should not succeed")
	}
	if StatusErrorNotInitialized.Succeeded() {
		t.Error("StatusErrorNotInitialized should not succeed")
	}
}

func TestStatus_Describe(t *testing.T) {
	// Every defined status has a description
	for status := range statusNames {
		desc := status.Describe()
		if desc == "" {
			t.Errorf("status %d has empty description", int32(status))
		}
		if strings.HasPrefix(desc, "unknown") {
			t.Errorf("status %d falls through to unknown", int32(status))
		}
	}

	// Unknown codes get a fallback description
	if desc := Status(-999).Describe(); !strings.Contains(desc, "-999") {
		t.Errorf("unknown status description = %q, want code included", desc)
	}
}

func TestStatus_String(t *testing.T) {
	got := StatusErrorRsrcLocked.String()
	if !strings.Contains(got, "locked") {
		t.Errorf("String = %q, want lock description", got)
	}
	if !strings.Contains(got, "-8") {
		t.Errorf("String = %q, want numeric code", got)
	}
}

func TestAccessMode_String(t *testing.T) {
	tests := []struct {
		mode AccessMode
		want string
	}{
		{AccessModeNone, "None"},
		{AccessModeShared, "Shared"},
		{AccessModeExclusive, "Exclusive"},
		{AccessMode(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("AccessMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
