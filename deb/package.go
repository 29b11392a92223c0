package deb

import (
	"archive/tar"
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	blakesmithar "github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/mmstick/cargo-deb/archive"
)

// descriptionWrapWidth is the column debian-policy recommends wrapping an
// extended description at.
const descriptionWrapWidth = 79

// Package is the fully assembled description of one .deb's contents: its
// control metadata, maintainer scripts, and payload files. It has no
// notion of globs, variants, or build directories — those are resolved
// upstream by the assets and manifest packages into a flat File list.
type Package struct {
	Metadata Metadata
	Scripts  Scripts
	Files    []File

	// ExtraControlFiles holds arbitrary control-archive members such as
	// "triggers" or a templates file. Reserved names (control, md5sums,
	// conffiles, the maintainer scripts) are ignored here since they are
	// written explicitly.
	ExtraControlFiles map[string]string

	// Fast, when true, trades a smaller dictionary and faster gzip level
	// for build speed over compression ratio in both archives.
	Fast bool

	// Epoch fixes the timestamp recorded in every archive entry. The zero
	// value means the Unix epoch, which is what a reproducible build
	// wants; it is exposed so tests can verify determinism explicitly.
	Epoch time.Time
}

// Metadata maps directly to the fields of a Debian control file.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#binary-package-control-files-debian-control
type Metadata struct {
	Package      string
	Version      string
	Architecture string
	Maintainer   string
	Description  string
	Section      string
	Priority     string
	Homepage     string
	Essential    bool

	Depends    []string
	PreDepends []string
	Recommends []string
	Suggests   []string
	Enhances   []string
	Conflicts  []string
	Breaks     []string
	Replaces   []string
	Provides   []string

	BuiltUsing string
	Source     string

	ExtraFields map[string]string
}

// Scripts holds the executable maintainer scripts run by dpkg at various
// lifecycle stages.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-maintainerscripts.html
type Scripts struct {
	PreInst  string
	PostInst string
	PreRm    string
	PostRm   string
	Config   string
}

// File is a single entry destined for the data archive: a regular file or
// a symlink.
type File struct {
	DestPath string
	Mode     int64
	Body     []byte
	IsConf   bool

	// Typeflag is tar.TypeReg (zero value) or tar.TypeSymlink.
	Typeflag byte
	// Linkname is the symlink target, set only when Typeflag is
	// tar.TypeSymlink.
	Linkname string
}

// StandardFilename returns the canonical .deb basename:
// <package>_<version>_<architecture>.deb.
func (p *Package) StandardFilename() string {
	return fmt.Sprintf("%s_%s_%s.deb", p.Metadata.Package, p.Metadata.Version, p.Metadata.Architecture)
}

// Set assigns a single control field by name, splitting relationship
// fields on commas and routing anything unrecognized into ExtraFields.
func (p *Package) Set(key, value string) {
	switch ControlField(key) {
	case FieldPackage:
		p.Metadata.Package = value
	case FieldVersion:
		p.Metadata.Version = value
	case FieldArchitecture:
		p.Metadata.Architecture = value
	case FieldMaintainer:
		p.Metadata.Maintainer = value
	case FieldDescription:
		p.Metadata.Description = value
	case FieldSection:
		p.Metadata.Section = value
	case FieldPriority:
		p.Metadata.Priority = value
	case FieldHomepage:
		p.Metadata.Homepage = value
	case FieldEssential:
		p.Metadata.Essential = value == "yes"
	case FieldDepends:
		p.Metadata.Depends = splitList(value)
	case FieldPreDepends:
		p.Metadata.PreDepends = splitList(value)
	case FieldRecommends:
		p.Metadata.Recommends = splitList(value)
	case FieldSuggests:
		p.Metadata.Suggests = splitList(value)
	case FieldEnhances:
		p.Metadata.Enhances = splitList(value)
	case FieldConflicts:
		p.Metadata.Conflicts = splitList(value)
	case FieldBreaks:
		p.Metadata.Breaks = splitList(value)
	case FieldReplaces:
		p.Metadata.Replaces = splitList(value)
	case FieldProvides:
		p.Metadata.Provides = splitList(value)
	case FieldBuiltUsing:
		p.Metadata.BuiltUsing = value
	case FieldSource:
		p.Metadata.Source = value
	case FieldInstalledSize:
		// always recomputed at generation time.
	default:
		if p.Metadata.ExtraFields == nil {
			p.Metadata.ExtraFields = make(map[string]string)
		}
		p.Metadata.ExtraFields[key] = value
	}
}

// WriteTo assembles the package and writes the resulting .deb bytes to w,
// returning the number of bytes written. It satisfies io.WriterTo.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	dataBuf := new(bytes.Buffer)
	md5sums, installedSize, err := p.buildDataArchive(dataBuf)
	if err != nil {
		return 0, fmt.Errorf("building data archive: %w", err)
	}

	controlBuf := new(bytes.Buffer)
	if err := p.buildControlArchive(controlBuf, md5sums, installedSize); err != nil {
		return 0, fmt.Errorf("building control archive: %w", err)
	}

	n, err := archive.WriteContainer(w, []archive.Member{
		{Name: string(PkgDebianBinary), Body: []byte("2.0\n")},
		{Name: string(PkgControlTarGz), Body: controlBuf.Bytes()},
		{Name: string(PkgDataTarXz), Body: dataBuf.Bytes()},
	})
	if err != nil {
		return n, fmt.Errorf("assembling ar container: %w", err)
	}
	return n, nil
}

// buildDataArchive writes the xz-compressed data.tar containing every
// payload file, returning each destination's md5 digest and the total
// installed size in bytes.
func (p *Package) buildDataArchive(w io.Writer) (map[string]string, int64, error) {
	xzw, err := archive.NewDataXzWriter(w, p.Fast)
	if err != nil {
		return nil, 0, err
	}

	md5sums := make(map[string]string)
	var installedSize int64
	entries := make([]archive.Entry, 0, len(p.Files))

	for _, f := range p.Files {
		clean := strings.TrimPrefix(f.DestPath, "/")
		if f.Typeflag == tar.TypeSymlink {
			entries = append(entries, archive.Entry{
				Name:     clean,
				Mode:     f.Mode,
				Typeflag: tar.TypeSymlink,
				Linkname: f.Linkname,
			})
			continue
		}

		sum := md5.Sum(f.Body)
		md5sums[clean] = hex.EncodeToString(sum[:])
		installedSize += int64(len(f.Body))

		entries = append(entries, archive.BytesEntry(clean, f.Mode, f.Body))
	}

	if err := archive.WriteTar(xzw, entries, p.Epoch); err != nil {
		return nil, 0, err
	}
	if err := xzw.Close(); err != nil {
		return nil, 0, err
	}
	return md5sums, installedSize, nil
}

// buildControlArchive writes the gzip-compressed control.tar containing
// the control file, md5sums, conffiles (if any), maintainer scripts, and
// any extra control members.
func (p *Package) buildControlArchive(w io.Writer, md5sums map[string]string, installedSize int64) error {
	gw, err := archive.NewControlGzipWriter(w, p.Fast)
	if err != nil {
		return err
	}

	var entries []archive.Entry
	entries = append(entries, archive.BytesEntry(string(FileControl), 0644, []byte(p.generateControlFile(installedSize))))
	entries = append(entries, archive.BytesEntry(string(FileMd5sums), 0644, []byte(p.generateMd5sums(md5sums))))

	var conffiles []string
	for _, f := range p.Files {
		if f.IsConf {
			conffiles = append(conffiles, "/"+strings.TrimPrefix(f.DestPath, "/"))
		}
	}
	if len(conffiles) > 0 {
		sort.Strings(conffiles)
		entries = append(entries, archive.BytesEntry(string(FileConffiles), 0644, []byte(strings.Join(conffiles, "\n")+"\n")))
	}

	scripts := []struct {
		name ControlFile
		body string
	}{
		{FilePreinst, p.Scripts.PreInst},
		{FilePostinst, p.Scripts.PostInst},
		{FilePrerm, p.Scripts.PreRm},
		{FilePostrm, p.Scripts.PostRm},
		{FileConfig, p.Scripts.Config},
	}
	for _, s := range scripts {
		if s.body != "" {
			entries = append(entries, archive.BytesEntry(string(s.name), 0755, []byte(s.body)))
		}
	}

	var extraNames []string
	for name := range p.ExtraControlFiles {
		extraNames = append(extraNames, name)
	}
	sort.Strings(extraNames)
	for _, name := range extraNames {
		switch ControlFile(name) {
		case FileControl, FileMd5sums, FileConffiles, FilePreinst, FilePostinst, FilePrerm, FilePostrm, FileConfig:
			continue
		}
		if content := p.ExtraControlFiles[name]; content != "" {
			entries = append(entries, archive.BytesEntry(name, 0644, []byte(content)))
		}
	}

	// Control archive members are written flat (no leading directory
	// components), so entries are emitted in sorted order without
	// WriteTar's ancestor-directory synthesis.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	if err := writeFlatTar(gw, entries, p.Epoch); err != nil {
		return err
	}
	return gw.Close()
}

// writeFlatTar writes entries as a tar stream without synthesizing
// ancestor directories, used for the control archive whose members all
// live at the archive root.
func writeFlatTar(w io.Writer, entries []archive.Entry, epoch time.Time) error {
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{
			Format:   tar.FormatGNU,
			Name:     "./" + e.Name,
			Mode:     e.Mode,
			Typeflag: tar.TypeReg,
			Size:     e.Size,
			ModTime:  epoch,
			Uname:    "root",
			Gname:    "root",
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if e.Body != nil {
			if _, err := io.Copy(tw, e.Body); err != nil {
				return err
			}
		}
	}
	return tw.Close()
}

func (p *Package) generateControlFile(installedBytes int64) string {
	var b strings.Builder

	writeField := func(field ControlField, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", field, value)
		}
	}

	writeField(FieldPackage, p.Metadata.Package)
	writeField(FieldVersion, p.Metadata.Version)
	writeField(FieldArchitecture, p.Metadata.Architecture)
	writeField(FieldMaintainer, p.Metadata.Maintainer)

	kbytes := (installedBytes + 1023) / 1024
	writeField(FieldInstalledSize, fmt.Sprintf("%d", kbytes))

	writeField(FieldSection, p.Metadata.Section)
	writeField(FieldPriority, p.Metadata.Priority)
	writeField(FieldHomepage, p.Metadata.Homepage)
	if p.Metadata.Essential {
		writeField(FieldEssential, "yes")
	}

	writeRel := func(field ControlField, items []string) {
		if len(items) > 0 {
			writeField(field, strings.Join(items, ", "))
		}
	}
	writeRel(FieldDepends, p.Metadata.Depends)
	writeRel(FieldPreDepends, p.Metadata.PreDepends)
	writeRel(FieldRecommends, p.Metadata.Recommends)
	writeRel(FieldSuggests, p.Metadata.Suggests)
	writeRel(FieldEnhances, p.Metadata.Enhances)
	writeRel(FieldConflicts, p.Metadata.Conflicts)
	writeRel(FieldBreaks, p.Metadata.Breaks)
	writeRel(FieldReplaces, p.Metadata.Replaces)
	writeRel(FieldProvides, p.Metadata.Provides)

	writeField(FieldBuiltUsing, p.Metadata.BuiltUsing)
	writeField(FieldSource, p.Metadata.Source)

	var extraKeys []string
	for k := range p.Metadata.ExtraFields {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		writeField(ControlField(k), p.Metadata.ExtraFields[k])
	}

	if p.Metadata.Description != "" {
		lines := strings.Split(p.Metadata.Description, "\n")
		writeField(FieldDescription, lines[0])
		for _, line := range lines[1:] {
			writeDescriptionLine(&b, line)
		}
	}

	return b.String()
}

// writeDescriptionLine folds one line of an extended description: a blank
// line becomes a lone "." (the RFC822 escape for an empty paragraph line),
// and any line longer than descriptionWrapWidth is greedily word-wrapped,
// each continuation indented with a single leading space as policy
// requires.
func writeDescriptionLine(b *strings.Builder, line string) {
	if strings.TrimSpace(line) == "" {
		b.WriteString(" .\n")
		return
	}
	trimmed := strings.TrimPrefix(line, " ")
	for _, wrapped := range wrapWords(trimmed, descriptionWrapWidth) {
		fmt.Fprintf(b, " %s\n", wrapped)
	}
}

func wrapWords(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := words[0]
	for _, word := range words[1:] {
		if len(cur)+1+len(word) > width {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur += " " + word
	}
	lines = append(lines, cur)
	return lines
}

func (p *Package) generateMd5sums(md5sums map[string]string) string {
	var paths []string
	for path := range md5sums {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		fmt.Fprintf(&b, "%s  %s\n", md5sums[path], path)
	}
	return b.String()
}

// NewPackage parses a .deb file back into a Package, used by tests to
// assert round-trip properties. It accepts both gzip and xz data/control
// members.
func NewPackage(r io.Reader) (*Package, error) {
	pkg := &Package{
		Metadata:          Metadata{ExtraFields: make(map[string]string)},
		ExtraControlFiles: make(map[string]string),
	}
	var conffiles []string

	arR := blakesmithar.NewReader(r)
	for {
		header, err := arR.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ar header: %w", err)
		}

		switch {
		case strings.HasPrefix(header.Name, "control.tar"):
			tr, err := decompressingTarReader(header.Name, arR)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", header.Name, err)
			}
			if err := pkg.readControlTar(tr, &conffiles); err != nil {
				return nil, err
			}
		case strings.HasPrefix(header.Name, "data.tar"):
			tr, err := decompressingTarReader(header.Name, arR)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", header.Name, err)
			}
			if err := pkg.readDataTar(tr); err != nil {
				return nil, err
			}
		}
	}

	if len(conffiles) > 0 {
		confSet := make(map[string]bool, len(conffiles))
		for _, cf := range conffiles {
			if cf != "" {
				confSet[cf] = true
			}
		}
		for i := range pkg.Files {
			if confSet["/"+strings.TrimPrefix(pkg.Files[i].DestPath, "/")] {
				pkg.Files[i].IsConf = true
			}
		}
	}

	return pkg, nil
}

func decompressingTarReader(memberName string, r io.Reader) (*tar.Reader, error) {
	switch {
	case strings.HasSuffix(memberName, ".gz"):
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return tar.NewReader(gzr), nil
	case strings.HasSuffix(memberName, ".xz"):
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return tar.NewReader(xzr), nil
	default:
		return tar.NewReader(r), nil
	}
}

func (p *Package) readControlTar(tr *tar.Reader, conffiles *[]string) error {
	for {
		th, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading control tar header: %w", err)
		}

		name := filepath.Base(th.Name)
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		content := buf.String()

		switch ControlFile(name) {
		case FileControl:
			if err := parseControlFile(content, &p.Metadata); err != nil {
				return fmt.Errorf("parsing control file: %w", err)
			}
		case FileConffiles:
			*conffiles = strings.Split(strings.TrimSpace(content), "\n")
		case FilePreinst:
			p.Scripts.PreInst = content
		case FilePostinst:
			p.Scripts.PostInst = content
		case FilePrerm:
			p.Scripts.PreRm = content
		case FilePostrm:
			p.Scripts.PostRm = content
		case FileConfig:
			p.Scripts.Config = content
		case FileMd5sums:
			// recomputed on write, never trusted from input.
		default:
			if !strings.HasPrefix(name, ".") {
				p.ExtraControlFiles[name] = content
			}
		}
	}
}

func (p *Package) readDataTar(tr *tar.Reader) error {
	for {
		th, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading data tar header: %w", err)
		}

		destPath := "/" + strings.TrimPrefix(th.Name, "./")
		destPath = strings.ReplaceAll(destPath, "//", "/")

		if th.Typeflag == tar.TypeDir {
			continue
		}
		if th.Typeflag == tar.TypeSymlink {
			p.Files = append(p.Files, File{
				DestPath: destPath,
				Mode:     th.Mode,
				Typeflag: tar.TypeSymlink,
				Linkname: th.Linkname,
			})
			continue
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return fmt.Errorf("reading file %s: %w", th.Name, err)
		}

		p.Files = append(p.Files, File{
			DestPath: destPath,
			Mode:     th.Mode,
			Body:     buf.Bytes(),
		})
	}
}

// Digest computes a deterministic SHA256 hash over the package's content,
// excluding the Installed-Size field (recomputed at write time) and
// insensitive to Files ordering.
func (p *Package) Digest() string {
	h := sha256.New()
	write := func(s string) { fmt.Fprintf(h, "%d:%s\x00", len(s), s) }

	write(p.Metadata.Package)
	write(p.Metadata.Version)
	write(p.Metadata.Architecture)
	write(p.Metadata.Maintainer)
	write(p.Metadata.Description)
	write(p.Metadata.Section)
	write(p.Metadata.Priority)

	lists := [][]string{
		p.Metadata.Depends, p.Metadata.PreDepends, p.Metadata.Recommends,
		p.Metadata.Suggests, p.Metadata.Enhances, p.Metadata.Conflicts,
		p.Metadata.Breaks, p.Metadata.Replaces, p.Metadata.Provides,
	}
	for _, list := range lists {
		write(fmt.Sprintf("%d", len(list)))
		for _, v := range list {
			write(v)
		}
	}

	files := make([]File, len(p.Files))
	copy(files, p.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].DestPath < files[j].DestPath })
	for _, f := range files {
		write(f.DestPath)
		write(fmt.Sprintf("%d", f.Mode))
		write(string(f.Body))
	}

	return hex.EncodeToString(h.Sum(nil))
}
