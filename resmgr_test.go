package govisa

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeLister replaces mDNS browsing in tests.
type fakeLister struct {
	names []string
	err   error
}

func (f *fakeLister) List(ctx context.Context) ([]string, error) {
	return f.names, f.err
}

func newTestRM(lister resourceLister) *ResourceManager {
	rm, _ := OpenDefaultRM()
	rm.lister = lister
	rm.browseWindow = 50 * time.Millisecond
	return rm
}

func TestResourceManager_FindResources(t *testing.T) {
	rm := newTestRM(&fakeLister{names: []string{
		"TCPIP0::192.168.1.50::5025::SOCKET",
		"TCPIP0::192.168.1.51::5025::SOCKET",
		"TCPIP0::192.168.1.50::5025::SOCKET", // duplicate
	}})

	names, status := rm.FindResources("?*")
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}
	if len(names) != 2 {
		t.Fatalf("len = %d, want 2 (duplicates removed)", len(names))
	}

	// Filter narrows the result
	names, status = rm.FindResources("*.51*")
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}
	if len(names) != 1 || names[0] != "TCPIP0::192.168.1.51::5025::SOCKET" {
		t.Errorf("filtered = %v, want only .51", names)
	}
}

func TestResourceManager_FindResourcesEmpty(t *testing.T) {
	rm := newTestRM(&fakeLister{})

	// Zero matches is not a failure
	names, status := rm.FindResources("?*")
	if status != StatusSuccess {
		t.Errorf("status = %v, want success", status)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}
}

func TestResourceManager_FindResourcesPartial(t *testing.T) {
	rm := newTestRM(&fakeLister{
		names: []string{"TCPIP0::192.168.1.50::5025::SOCKET"},
		err:   errors.New("browse interrupted"),
	})

	// Enumeration failure partway still returns what was collected
	names, status := rm.FindResources("?*")
	if status != StatusErrorFindFailed {
		t.Errorf("status = %v, want FindFailed", status)
	}
	if len(names) != 1 {
		t.Errorf("names = %v, want the one collected entry", names)
	}
}

func TestResourceManager_FindResourcesTruncates(t *testing.T) {
	long := "TCPIP0::" + strings.Repeat("x", 300) + "::5025::SOCKET"
	rm := newTestRM(&fakeLister{names: []string{long}})

	names, status := rm.FindResources("?*")
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}
	if len(names) != 1 || len(names[0]) != FindBufLen {
		t.Errorf("name length = %d, want %d", len(names[0]), FindBufLen)
	}
}

func TestResourceManager_FindResourcesClosed(t *testing.T) {
	rm := newTestRM(&fakeLister{})
	rm.Close()

	if _, status := rm.FindResources("?*"); status != StatusErrorNotInitialized {
		t.Errorf("status = %v, want NotInitialized", status)
	}
}

func TestResourceManager_OpenResource(t *testing.T) {
	mock := newMockInstrument(t, nil)
	rm := newTestRM(&fakeLister{})

	res, status := rm.openResource(mock.resource(), AccessModeExclusive, 200*time.Millisecond, '\n')
	if status != StatusSuccess {
		t.Fatalf("openResource = %v, want success", status)
	}
	defer res.Close()

	if res.Name() != mock.resource() {
		t.Errorf("Name = %q, want %q", res.Name(), mock.resource())
	}
	if res.AccessMode() != AccessModeExclusive {
		t.Errorf("AccessMode = %v, want Exclusive", res.AccessMode())
	}
	if got := locks.Held(mock.resource()); got != AccessModeExclusive {
		t.Errorf("registry Held = %v, want Exclusive", got)
	}

	// Second exclusive open on the same resource must fail with a lock error
	if _, status := rm.openResource(mock.resource(), AccessModeExclusive, 30*time.Millisecond, '\n'); status != StatusErrorRsrcLocked {
		t.Errorf("second open = %v, want RsrcLocked", status)
	}
}

func TestResourceManager_OpenResourceReleasesLockOnDialFailure(t *testing.T) {
	rm := newTestRM(&fakeLister{})

	// Port 1 on loopback should refuse the connection
	name := "TCPIP0::127.0.0.1::1::SOCKET"
	_, status := rm.openResource(name, AccessModeExclusive, 200*time.Millisecond, '\n')
	if status != StatusErrorRsrcNotFound && status != StatusErrorTimeout {
		t.Fatalf("openResource = %v, want RsrcNotFound or Timeout", status)
	}

	// The lock taken before dialing must have been released
	if got := locks.Held(name); got != AccessModeNone {
		t.Errorf("registry Held = %v, want None", got)
	}
}

func TestResourceManager_OpenResourceInvalidName(t *testing.T) {
	rm := newTestRM(&fakeLister{})

	if _, status := rm.openResource("GPIB0::5::INSTR", AccessModeNone, 0, '\n'); status != StatusErrorInvalidRsrcName {
		t.Errorf("openResource = %v, want InvalidRsrcName", status)
	}
}

func TestEntryToResources(t *testing.T) {
	// Rendering is exercised indirectly through FormatResource; here we only
	// check the resource-name shape used by discovery.
	name := FormatResource(0, "192.168.1.50", 5025)
	if !strings.HasPrefix(name, "TCPIP0::") || !strings.HasSuffix(name, "::SOCKET") {
		t.Errorf("rendered name %q has wrong shape", name)
	}
}
