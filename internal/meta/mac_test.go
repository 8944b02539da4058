package meta

import (
	"regexp"
	"testing"

	"github.com/kwandrews/drydock/internal/errdefs"
)

var macPattern = regexp.MustCompile(`^52:54:00:[0-7][0-9a-f]:[0-9a-f]{2}:[0-9a-f]{2}$`)

func TestGenerateUniqueMACFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		mac, err := GenerateUniqueMAC(func(string) bool { return false }, 0)
		if err != nil {
			t.Fatalf("GenerateUniqueMAC() error = %v", err)
		}
		if !macPattern.MatchString(mac) {
			t.Fatalf("GenerateUniqueMAC() = %q, want match for %s", mac, macPattern)
		}
	}
}

func TestGenerateUniqueMACAvoidsFleet(t *testing.T) {
	taken := map[string]bool{}

	// Claim each generated address and ask for another; none may repeat.
	for i := 0; i < 25; i++ {
		mac, err := GenerateUniqueMAC(func(addr string) bool { return taken[addr] }, len(taken))
		if err != nil {
			t.Fatalf("GenerateUniqueMAC() error = %v", err)
		}
		if taken[mac] {
			t.Fatalf("GenerateUniqueMAC() returned in-use address %q", mac)
		}
		taken[mac] = true
	}
}

func TestGenerateUniqueMACExhaustsBudget(t *testing.T) {
	_, err := GenerateUniqueMAC(func(string) bool { return true }, 3)
	if !errdefs.IsKind(err, errdefs.KindGeneration) {
		t.Errorf("GenerateUniqueMAC() error = %v, want generation kind", err)
	}
}
