package debugsplit

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mmstick/cargo-deb/config"
)

// Tools names the external helpers used to perform a split; overridable in
// tests and by configuration to point at a non-default toolchain.
type Tools struct {
	Objcopy string
	Strip   string
}

// DefaultTools resolves to the conventional names found on PATH.
func DefaultTools() Tools {
	return Tools{Objcopy: "objcopy", Strip: "strip"}
}

// Result names the two files a Split call produces: the stripped binary
// that replaces the original in the data archive, and the standalone debug
// file destined for usr/lib/debug.
type Result struct {
	StrippedPath string
	DebugPath    string
}

// Split extracts binary's debug symbols into a new file in workDir (named
// <basename>.debug), strips the debug section from a working copy of
// binary in workDir, and returns paths to both. Callers are responsible for
// placing the returned files at their final archive destinations and
// removing the temporary copies afterward.
func Split(tools Tools, binary, workDir string) (Result, error) {
	debugPath := filepath.Join(workDir, filepath.Base(binary)+".debug")
	strippedPath := filepath.Join(workDir, filepath.Base(binary))

	if err := run(tools.Objcopy, "--only-keep-debug", binary, debugPath); err != nil {
		return Result{}, err
	}

	if err := copyFile(binary, strippedPath); err != nil {
		return Result{}, &config.IoError{Path: strippedPath, Err: err}
	}

	if err := run(tools.Objcopy, "--strip-debug", "--strip-unneeded", strippedPath); err != nil {
		return Result{}, err
	}
	if err := run(tools.Objcopy,
		"--add-gnu-debuglink="+debugPath, strippedPath); err != nil {
		return Result{}, err
	}

	return Result{StrippedPath: strippedPath, DebugPath: debugPath}, nil
}

// StripOnly strips a copy of binary in workDir, leaving binary itself
// untouched and producing no separate debug file, and returns the copy's
// path. It is used when SeparateDebugSymbols is false but Strip is true.
func StripOnly(tools Tools, binary, workDir string) (string, error) {
	strippedPath := filepath.Join(workDir, filepath.Base(binary))
	if err := copyFile(binary, strippedPath); err != nil {
		return "", &config.IoError{Path: strippedPath, Err: err}
	}
	if err := run(tools.Strip, "--strip-unneeded", strippedPath); err != nil {
		return "", err
	}
	return strippedPath, nil
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &config.ToolError{Tool: name, Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}
