// Package testroms downloads and caches the external test fixtures
// nesgo's end-to-end and conformance tests run against: christopherpow's
// nes-test-roms corpus and SingleStepTests' per-opcode 6502 JSON vectors.
// Neither is vendored into the module (they are not ours to redistribute);
// tests that need them call RomsPath/OpcodeTestsPath, which fetch once
// and cache under this package's directory.
//
// Grounded on arl-nestor's tests/files.go (the same two corpora, the same
// download-to-temp-dir-then-rename pattern, and the errgroup-bounded
// concurrent per-opcode fetch).
package testroms

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"
)

func decompress(zipFile, dest string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, "nes-test-roms-master", "nes-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, os.ModePerm)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func downloadTestRoms(dest string) error {
	const url = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmpf, err := os.CreateTemp("", "nes-test-roms-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())
	defer tmpf.Close()

	if _, err := io.Copy(tmpf, resp.Body); err != nil {
		return err
	}
	return decompress(tmpf.Name(), dest)
}

// RomsPath returns the directory holding christopherpow/nes-test-roms,
// downloading it on first use. Tests call this lazily so a normal `go
// test ./...` run that never touches conformance tests never hits the
// network.
func RomsPath(tb testing.TB) string {
	tb.Helper()
	_, b, _, _ := runtime.Caller(0)
	testsDir := filepath.Dir(b)
	romsDir := filepath.Join(testsDir, "nes-test-roms")

	if _, err := os.Stat(romsDir); errors.Is(err, fs.ErrNotExist) {
		tb.Log("nes-test-roms not found, downloading...")
		if err := downloadTestRoms(testsDir); err != nil {
			tb.Skipf("could not download nes-test-roms: %v", err)
		}
	}
	return romsDir
}

// downloadOpcodeTests fetches all 256 per-opcode JSON vectors from
// SingleStepTests/65x02 concurrently, bounded by the CPU count, grounded on
// arl-nestor's downloadTomHarteProcTests.
func downloadOpcodeTests(tb testing.TB, dest string) error {
	const urlfmt = `https://raw.githubusercontent.com/SingleStepTests/65x02/main/nes6502/v1/%s.json`

	tempdir, err := os.MkdirTemp("", "nesgo-opcode-tests-*")
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for opcode := 0; opcode < 256; opcode++ {
		opstr := fmt.Sprintf("%02x", opcode)
		url := fmt.Sprintf(urlfmt, opstr)

		g.Go(func() error {
			resp, err := http.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return nil // unofficial opcodes have no vector; skip
			}

			f, err := os.Create(filepath.Join(tempdir, opstr+".json"))
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(f, resp.Body)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		return err
	}
	return os.Rename(tempdir, dest)
}

// OpcodeTestsPath returns the directory holding one JSON vector file per
// official 6502 opcode, downloading them on first use.
func OpcodeTestsPath(tb testing.TB) string {
	tb.Helper()
	_, b, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(b), "opcode-tests")

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		tb.Log("opcode test vectors not found, downloading...")
		if err := downloadOpcodeTests(tb, dir); err != nil {
			tb.Skipf("could not download opcode test vectors: %v", err)
		}
	}
	return dir
}
