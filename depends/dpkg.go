package depends

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/mmstick/cargo-deb/config"
)

// owningPackage asks dpkg-query which installed package owns the file at
// path, returning "" if no package claims it (dpkg-query exit status 1).
// Any other dpkg-query failure, including the tool being absent, is
// returned as an error.
func owningPackage(path string) (string, error) {
	out, err := runTool("dpkg-query", "--search", path)
	if err != nil {
		if isNotFoundExit(err) {
			return "", nil
		}
		return "", err
	}
	// Output looks like "libc6:amd64: /lib/x86_64-linux-gnu/libc.so.6".
	line := strings.TrimSpace(string(out))
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", nil
	}
	name := line[:idx]
	if colonArch := strings.Index(name, ":"); colonArch >= 0 {
		name = name[:colonArch]
	}
	return name, nil
}

// installedVersion asks dpkg-query for the installed version of a package,
// used to build the "pkg (>= installed-version)" atom. This installed
// version is the only minimum used; no minimum is derived from the
// library's SONAME.
func installedVersion(pkg string) (string, error) {
	out, err := runTool("dpkg-query", "--showformat=${Version}", "--show", pkg)
	if err != nil {
		if isNotFoundExit(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func runTool(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return nil, &config.ToolError{Tool: name, Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

// isNotFoundExit reports whether err represents dpkg-query's "no package
// owns this file" exit status (1), as opposed to a genuine tool failure.
func isNotFoundExit(err error) bool {
	te, ok := err.(*config.ToolError)
	if !ok {
		return false
	}
	ee, ok := te.Err.(*exec.ExitError)
	return ok && ee.ExitCode() == 1
}
