package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nesgo/internal/logx"
)

// mode names the subcommand actually selected, grounded on arl-nestor's
// cli.go mode enum.
type mode byte

const (
	runMode mode = iota
	romInfoMode
	versionMode
)

type CLI struct {
	Run     Run     `cmd:"" help:"Run a ROM." default:"1"`
	RomInfo RomInfo `cmd:"" help:"Print ROM header information." name:"rom-info"`
	Version Version `cmd:"" help:"Print the nesgo version."`

	Log logModMask `help:"Enable logging for the given comma-separated modules (or 'all'/'no')." placeholder:"mod0,mod1,..."`

	mode mode
}

type Run struct {
	RomPath string `arg:"" name:"/path/to/rom" help:"ROM file to run." required:"true" type:"existingfile"`

	Scale      int      `name:"scale" help:"Window scale factor." default:"3"`
	DebugAddr  string   `name:"debug-addr" help:"Serve a JSON state snapshot over HTTP at this address (e.g. localhost:6060)."`
	Trace      *outfile `name:"trace" help:"Write a per-instruction execution trace." placeholder:"FILE|stdout|stderr"`
	CPUProfile string   `name:"cpuprofile" help:"Write a CPU profile to this file." type:"path"`
}

type RomInfo struct {
	RomPath string `arg:"" name:"/path/to/rom" help:"ROM file to inspect." required:"true" type:"existingfile"`
	JSON    bool   `name:"json" help:"Print as JSON instead of plain text."`
}

type Version struct{}

var vars = kong.Vars{}

func parseArgs(args []string) CLI {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("nesgo"),
		kong.Description("A NES emulator core with an SDL2/OpenGL front end."),
		kong.UsageOnError(),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "rom-info </path/to/rom>":
		cli.mode = romInfoMode
	case "version":
		cli.mode = versionMode
	default:
		cli.mode = runMode
	}
	return cli
}

// logModMask implements kong.MapperValue, decoding a comma-separated list
// of module names (or "all"/"no") into a logx.ModuleMask that gates
// per-module Debug output, grounded on arl-nestor's cli.go logModMask and
// emu/log.ModuleMask/EnableDebugModules.
type logModMask struct{}

func (logModMask) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()

	var mask logx.ModuleMask
	nolog := false
	allLogs := false

	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			m, ok := logx.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			mask |= m
		}
	}

	if nolog {
		if allLogs || mask != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		logx.Disable()
		return nil
	}

	if allLogs {
		mask = logx.ModuleMaskAll
	}
	logx.EnableDebugModules(mask)
	return nil
}

// outfile decodes FILE|stdout|stderr into a closable io.Writer, grounded
// on arl-nestor's cli.go outfile.
type outfile struct {
	w     writeCloser
	name  string
	close func() error
}

type writeCloser interface {
	Write(p []byte) (int, error)
}

func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+": %s", append(args, err.Error())...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
