package resolution

import (
	"errors"
	"testing"
)

func TestLookupAllKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 9 {
		t.Fatalf("expected 9 resolutions, got %d", len(keys))
	}
	for _, k := range keys {
		r, err := Lookup(k)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", k, err)
		}
		if r.Period == "" {
			t.Errorf("Lookup(%q): empty server period", k)
		}
		if r.Label == "" {
			t.Errorf("Lookup(%q): empty label", k)
		}
	}
}

func TestLabelsUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, r := range All() {
		if prev, dup := seen[r.Label]; dup {
			t.Errorf("label %q shared by keys %q and %q", r.Label, prev, r.Key)
		}
		seen[r.Label] = r.Key
	}
}

func TestKeysOrder(t *testing.T) {
	want := []string{"1", "5", "15", "30", "60", "240", "1440", "10080", "302400"}
	got := Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("7")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
