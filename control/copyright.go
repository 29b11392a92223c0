package control

import (
	"fmt"
	"os"
	"strings"

	"github.com/mmstick/cargo-deb/config"
)

const copyrightFormat = "https://www.debian.org/doc/packaging-manuals/copyright-format/1.0/"

// GenerateCopyright builds the usr/share/doc/<package>/copyright content: a
// format-1.0 header naming upstream and the declared copyright line,
// followed by the license text from cfg.LicenseFile.SkipLines onward, and
// finally any copyright additions verbatim.
func GenerateCopyright(cfg *config.PackageConfig) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Format: %s\n", copyrightFormat)
	fmt.Fprintf(&b, "Upstream-Name: %s\n", cfg.Name)
	if cfg.Homepage != "" {
		fmt.Fprintf(&b, "Source: %s\n", cfg.Homepage)
	}
	b.WriteString("\n")
	b.WriteString("Files: *\n")
	if cfg.Copyright != "" {
		fmt.Fprintf(&b, "Copyright: %s\n", cfg.Copyright)
	}
	b.WriteString("License: see-below\n")

	if cfg.LicenseFile != nil && cfg.LicenseFile.Path != "" {
		text, err := readFromLine(cfg.LicenseFile.Path, cfg.LicenseFile.SkipLines)
		if err != nil {
			return "", &config.IoError{Path: cfg.LicenseFile.Path, Err: err}
		}
		b.WriteString("\n")
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteString("\n")
		}
	}

	if cfg.CopyrightAdditions != "" {
		b.WriteString("\n")
		b.WriteString(cfg.CopyrightAdditions)
		if !strings.HasSuffix(cfg.CopyrightAdditions, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

func readFromLine(path string, skip int) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if skip <= 0 {
		return string(content), nil
	}
	lines := strings.Split(string(content), "\n")
	if skip >= len(lines) {
		return "", nil
	}
	return strings.Join(lines[skip:], "\n"), nil
}
