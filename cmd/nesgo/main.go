// Command nesgo runs the NES emulator core built in this module, either
// in an SDL2/OpenGL window or as a headless ROM-info utility. Grounded
// on arl-nestor's main.go/cli.go (kong-driven subcommands wired to
// module-based logging and an execution trace flag).
package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"nesgo/console"
	"nesgo/ines"
	"nesgo/internal/config"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		fmt.Println("nesgo 0.1.0")
	case romInfoMode:
		runRomInfo(cli.RomInfo)
	default:
		runRom(cli.Run)
	}
}

func runRom(cfg Run) {
	rom, err := ines.Open(cfg.RomPath)
	checkf(err, "failed to open rom")

	c := console.New()
	checkf(c.PowerUp(rom), "error during power up")

	if cfg.Trace != nil {
		c.SetTraceOutput(cfg.Trace)
		defer cfg.Trace.Close()
	}

	if cfg.DebugAddr != "" {
		startDebugServer(cfg.DebugAddr, c)
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		checkf(err, "failed to create cpu profile")
		defer f.Close()
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer pprof.StopCPUProfile()
	}

	appCfg := config.LoadOrDefault()
	appCfg.Video.ScaleFactor = cfg.Scale
	defer func() {
		if err := config.Save(appCfg); err != nil {
			fatalf("saving config: %s", err)
		}
	}()

	if err := runWindow(c, appCfg); err != nil {
		fatalf("window: %s", err)
	}
}
