package cpu

import "testing"

// flatBus is a 64KiB RAM-backed Bus for isolated CPU testing.
type flatBus struct {
	mem [0x10000]byte
}

func (b *flatBus) CPURead(addr uint16) uint8     { return b.mem[addr] }
func (b *flatBus) CPUWrite(addr uint16, v uint8) { b.mem[addr] = v }

// newTestCPU returns a CPU over a flatBus with the reset vector pointed at
// 0x8000 and program bytes loaded starting there.
func newTestCPU(t *testing.T, program ...byte) (*CPU, *flatBus) {
	t.Helper()
	bus := &flatBus{}
	copy(bus.mem[0x8000:], program)
	bus.mem[ResetVector] = 0x00
	bus.mem[ResetVector+1] = 0x80
	c := New(bus)
	c.Reset()
	return c, bus
}

func wantReg(t *testing.T, name string, got, want uint8) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %#02x, want %#02x", name, got, want)
	}
}
