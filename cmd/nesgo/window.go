package main

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"nesgo/console"
	"nesgo/input"
	"nesgo/internal/config"
	"nesgo/ppu"
)

// buildKeymap translates a config.InputConfig's SDL key names (as
// returned by sdl.GetKeyName, e.g. "Up", "Return", "Space") into a
// sampling table of sdl.Keycode -> input.Button. Unrecognized or empty
// names are skipped, leaving that button unbound.
func buildKeymap(cfg config.InputConfig) map[sdl.Keycode]input.Button {
	m := make(map[sdl.Keycode]input.Button)
	bind := func(name string, btn input.Button) {
		if name == "" {
			return
		}
		if key := sdl.GetKeyFromName(name); key != sdl.K_UNKNOWN {
			m[key] = btn
		}
	}
	bind(cfg.Up, input.ButtonUp)
	bind(cfg.Down, input.ButtonDown)
	bind(cfg.Left, input.ButtonLeft)
	bind(cfg.Right, input.ButtonRight)
	bind(cfg.A, input.ButtonA)
	bind(cfg.B, input.ButtonB)
	bind(cfg.Select, input.ButtonSelect)
	bind(cfg.Start, input.ButtonStart)
	return m
}

// glWindow owns the SDL window, GL context and the single textured quad
// the PPU framebuffer is blitted onto every frame. Grounded on
// arl-nestor's hw/window.go; simplified to one hardcoded passthrough
// shader (the teacher's CRT shader variant and embed.FS shader
// directory are out of scope for this core's debug-quality display).
type glWindow struct {
	win     *sdl.Window
	context sdl.GLContext
	texture uint32
	prog    uint32
	vao     uint32
}

func newGLWindow(title string, scale int) (*glWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_JOYSTICK); err != nil {
		return nil, fmt.Errorf("sdl.Init: %w", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	w := int32(ppu.ScreenWidth * scale)
	h := int32(ppu.ScreenHeight * scale)
	win, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, w, h,
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("sdl.CreateWindow: %w", err)
	}

	ctx, err := win.GLCreateContext()
	if err != nil {
		return nil, fmt.Errorf("GLCreateContext: %w", err)
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl.Init: %w", err)
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, ppu.ScreenWidth, ppu.ScreenHeight, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	vert, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	frag, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}
	prog, err := linkProgram(vert, frag)
	if err != nil {
		return nil, err
	}

	var vbo, vao, ebo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.GenBuffers(1, &ebo)

	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(quadIndices)*4, gl.Ptr(quadIndices), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 5*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 5*4, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return &glWindow{win: win, context: ctx, texture: texture, prog: prog, vao: vao}, nil
}

func (w *glWindow) present(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) {
	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, ppu.ScreenWidth, ppu.ScreenHeight, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&frame[0]))

	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(w.prog)
	gl.BindVertexArray(w.vao)
	gl.DrawElements(gl.TRIANGLES, int32(len(quadIndices)), gl.UNSIGNED_INT, nil)
	w.win.GLSwap()
}

func (w *glWindow) close() {
	sdl.GLDeleteContext(w.context)
	w.win.Destroy()
	sdl.Quit()
}

var quadVertices = []float32{
	1.0, 1.0, 0, 1, 0,
	1.0, -1.0, 0, 1, 1,
	-1.0, -1.0, 0, 0, 1,
	-1.0, 1.0, 0, 0, 0,
}

var quadIndices = []uint32{0, 1, 3, 1, 2, 3}

const vertexShaderSource = `
#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
out vec2 TexCoord;
void main() {
	gl_Position = vec4(aPos, 1.0);
	TexCoord = aTexCoord;
}
` + "\x00"

const fragmentShaderSource = `
#version 330 core
out vec4 FragColor;
in vec2 TexCoord;
uniform sampler2D ourTexture;
void main() {
	FragColor = texture(ourTexture, TexCoord);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(source)
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(sh, logLength, nil, &log[0])
		return 0, fmt.Errorf("shader compile error: %s", log)
	}
	return sh, nil
}

func linkProgram(vert, frag uint32) (uint32, error) {
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		var glLog [512]byte
		gl.GetProgramInfoLog(prog, int32(len(glLog)), &logLength, &glLog[0])
		return 0, fmt.Errorf("shader link error: %s", glLog[:logLength])
	}
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

// runWindow opens a window, then runs c at roughly 60Hz until the window
// is closed or Escape is pressed, sampling SDL keyboard state into both
// controller ports each frame according to appCfg's key bindings.
func runWindow(c *console.Console, appCfg config.Config) error {
	w, err := newGLWindow("nesgo", appCfg.Video.ScaleFactor)
	if err != nil {
		return err
	}
	defer w.close()

	keymaps := [2]map[sdl.Keycode]input.Button{
		buildKeymap(appCfg.Input1),
		buildKeymap(appCfg.Input2),
	}

	for {
		var buttons [2]input.Button
		quit := false
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				quit = true
			case *sdl.KeyboardEvent:
				if e.Keysym.Sym == sdl.K_ESCAPE && e.State == sdl.PRESSED {
					quit = true
				}
			}
		}
		if quit {
			return nil
		}

		keys := sdl.GetKeyboardState()
		for port, keymap := range keymaps {
			for key, btn := range keymap {
				if keys[sdl.GetScancodeFromKey(key)] != 0 {
					buttons[port] |= btn
				}
			}
		}
		c.SetButtons(0, buttons[0])
		c.SetButtons(1, buttons[1])

		c.RunFrame()
		w.present(&c.PPU.Frame)
		sdl.Delay(16)
	}
}
