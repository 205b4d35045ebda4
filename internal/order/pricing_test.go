package order

import (
	"errors"
	"testing"
)

func TestNominalTier(t *testing.T) {
	cases := []struct {
		total, want int
	}{
		{0, 6},
		{6, 6},
		{11, 6},
		{12, 12},
		{23, 12},
		{24, 24},
		{35, 24},
		{36, 36},
		{100, 36},
	}
	for _, c := range cases {
		if got := NominalTier(c.total); got != c.want {
			t.Errorf("NominalTier(%d) = %d, want %d", c.total, got, c.want)
		}
	}
}

func TestResolveTier(t *testing.T) {
	cases := []struct {
		name    string
		offered []int
		nominal int
		want    int
	}{
		{"exact match", []int{6, 12, 24, 36}, 12, 12},
		{"single tier wins outright", []int{24}, 6, 24},
		{"clamped up to minimum", []int{24, 36}, 6, 24},
		{"clamped down to maximum", []int{6, 12}, 36, 12},
		{"nominal inside bounds", []int{6, 12, 24, 36}, 24, 24},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ResolveTier(c.offered, c.nominal)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("ResolveTier(%v, %d) = %d, want %d", c.offered, c.nominal, got, c.want)
			}
		})
	}
}

func TestResolveTierNoData(t *testing.T) {
	_, err := ResolveTier(nil, 12)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty tier set, got %v", err)
	}
}

func TestUnitLabel(t *testing.T) {
	if got := UnitLabel(641); got != "個" {
		t.Fatalf("category 641 unit = %q, want 個", got)
	}
	if got := UnitLabel(1106); got != "個" {
		t.Fatalf("category 1106 unit = %q, want 個", got)
	}
	if got := UnitLabel(7); got != "本" {
		t.Fatalf("category 7 unit = %q, want 本", got)
	}
}

func TestTruncateName(t *testing.T) {
	if got := TruncateName("あいうえおかきくけこさしす", 11); got != "あいうえおかきくけこさ" {
		t.Fatalf("truncated name = %q", got)
	}
	if got := TruncateName("短い", 11); got != "短い" {
		t.Fatalf("short name changed: %q", got)
	}
}

func TestSecureKeyShape(t *testing.T) {
	key := SecureKey(TransactionKeyLen)
	if len(key) != TransactionKeyLen {
		t.Fatalf("key length = %d, want %d", len(key), TransactionKeyLen)
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			t.Fatalf("unexpected character %q in key", r)
		}
	}
	if SecureKey(10) == SecureKey(10) {
		t.Fatal("two keys came out identical")
	}
}
