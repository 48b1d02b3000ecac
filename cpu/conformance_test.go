package cpu

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"nesgo/internal/testroms"
)

// vectorState is one "initial"/"final" block of a SingleStepTests 6502
// JSON vector.
type vectorState struct {
	PC  uint16     `json:"pc"`
	S   uint8      `json:"s"`
	A   uint8      `json:"a"`
	X   uint8      `json:"x"`
	Y   uint8      `json:"y"`
	P   uint8      `json:"p"`
	RAM [][2]int64 `json:"ram"`
}

type vector struct {
	Name    string      `json:"name"`
	Initial vectorState `json:"initial"`
	Final   vectorState `json:"final"`
}

func (s vectorState) apply(c *CPU, bus *flatBus) {
	c.PC, c.SP, c.A, c.X, c.Y = s.PC, s.S, s.A, s.X, s.Y
	c.P = P(s.P)
	for _, kv := range s.RAM {
		bus.mem[uint16(kv[0])] = uint8(kv[1])
	}
}

func (s vectorState) check(t *testing.T, name string, c *CPU, bus *flatBus) {
	t.Helper()
	if c.PC != s.PC {
		t.Errorf("%s: PC = %#04x, want %#04x", name, c.PC, s.PC)
	}
	if c.SP != s.S {
		t.Errorf("%s: SP = %#02x, want %#02x", name, c.SP, s.S)
	}
	if c.A != s.A || c.X != s.X || c.Y != s.Y {
		t.Errorf("%s: A,X,Y = %#02x,%#02x,%#02x, want %#02x,%#02x,%#02x", name, c.A, c.X, c.Y, s.A, s.X, s.Y)
	}
	if uint8(c.P) != s.P {
		t.Errorf("%s: P = %#02x, want %#02x", name, uint8(c.P), s.P)
	}
	for _, kv := range s.RAM {
		addr, want := uint16(kv[0]), uint8(kv[1])
		if got := bus.mem[addr]; got != want {
			t.Errorf("%s: mem[%#04x] = %#02x, want %#02x", name, addr, got, want)
		}
	}
}

// TestOfficialOpcodesAgainstSingleStepVectors replays every official
// opcode's SingleStepTests vectors against one real instruction
// execution each, checking the full post-state (registers, flags, and
// every touched memory cell). Skipped in -short mode since it downloads
// ~256 JSON fixture files on first run (see internal/testroms).
func TestOfficialOpcodesAgainstSingleStepVectors(t *testing.T) {
	if testing.Short() {
		t.Skip("downloads external test vectors; skipped in -short mode")
	}

	dir := testroms.OpcodeTestsPath(t)

	for opcode := 0; opcode < 256; opcode++ {
		if decodeTable[opcode].exec == nil {
			continue // unofficial opcode, out of scope
		}
		opcode := opcode
		name := decodeTable[opcode].name
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, hexByte(uint8(opcode))+".json")
			data, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				t.Skipf("no vector file for opcode $%02X", opcode)
			}
			if err != nil {
				t.Fatal(err)
			}

			var vectors []vector
			if err := json.Unmarshal(data, &vectors); err != nil {
				t.Fatalf("unmarshal %s: %v", path, err)
			}

			for _, v := range vectors {
				bus := &flatBus{}
				c := New(bus)
				v.Initial.apply(c, bus)
				c.Step()
				v.Final.check(t, v.Name, c, bus)
			}
		})
	}
}

func hexByte(b uint8) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xF]})
}
