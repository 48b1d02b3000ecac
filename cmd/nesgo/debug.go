package main

import (
	"net/http"

	"github.com/go-faster/jx"

	"nesgo/console"
	"nesgo/internal/logx"
)

var modDebug = logx.NewModule("debug")

// startDebugServer serves a JSON CPU/PPU state snapshot at GET /state on
// addr, a lighter-weight stand-in for arl-nestor's websocket-based
// emu/debugger (see DESIGN.md for why the full GTK/websocket debugger UI
// was not ported: this core's debug surface is read-only introspection,
// not a second interactive window).
func startDebugServer(addr string, c *console.Console) {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		var e jx.Encoder
		e.ObjStart()

		e.FieldStart("cpu")
		e.ObjStart()
		e.FieldStart("pc")
		e.UInt16(c.CPU.PC)
		e.FieldStart("a")
		e.UInt8(c.CPU.A)
		e.FieldStart("x")
		e.UInt8(c.CPU.X)
		e.FieldStart("y")
		e.UInt8(c.CPU.Y)
		e.FieldStart("sp")
		e.UInt8(c.CPU.SP)
		e.FieldStart("p")
		e.UInt8(uint8(c.CPU.P))
		e.FieldStart("cycles")
		e.Int64(c.CPU.Cycles)
		e.ObjEnd()

		e.FieldStart("ppu")
		e.ObjStart()
		e.FieldStart("scanline")
		e.Int(c.PPU.Scanline())
		e.FieldStart("dot")
		e.Int(c.PPU.Dot())
		e.FieldStart("frame")
		e.UInt64(c.PPU.FrameCount())
		e.ObjEnd()

		e.ObjEnd()

		w.Header().Set("Content-Type", "application/json")
		w.Write(e.Bytes())
	})

	go func() {
		modDebug.Infof("debug endpoint listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			modDebug.Errorf("debug server stopped: %v", err)
		}
	}()
}
