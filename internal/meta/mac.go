package meta

import (
	"fmt"
	"math/rand"

	"github.com/kwandrews/drydock/internal/errdefs"
)

// GenerateUniqueMAC samples addresses in the locally-administered KVM
// range 52:54:00:XX:XX:XX until one is not in use by the fleet. The
// attempt budget scales with fleet size to keep collision probability
// low without looping forever.
func GenerateUniqueMAC(inUse func(string) bool, vmCount int) (string, error) {
	attempts := vmCount*50 + 1
	for i := 0; i < attempts; i++ {
		addr := fmt.Sprintf("52:54:00:%02x:%02x:%02x",
			rand.Intn(0x80), rand.Intn(0x100), rand.Intn(0x100))
		if !inUse(addr) {
			return addr, nil
		}
	}
	return "", errdefs.New(errdefs.KindGeneration, "meta.mac",
		"could not generate a unique MAC address in %d attempts", attempts)
}
