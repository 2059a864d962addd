package rpmmd

import (
	"compress/gzip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/glorpus-work/yumsync/pkg/errors"
)

// Package is one package record from a primary index, with numeric fields
// already cooked. Descriptive fields are carried through so metadata can be
// re-emitted without touching the package payloads.
type Package struct {
	Name    string
	Arch    string
	Epoch   string
	Version string
	Release string

	ChecksumType string
	Checksum     string

	Summary     string
	Description string
	Packager    string
	URL         string

	FileTime  int64
	BuildTime int64

	PackageSize   int64
	InstalledSize int64
	ArchiveSize   int64

	LocationHref string

	License     string
	Vendor      string
	Group       string
	BuildHost   string
	SourceRPM   string
	HeaderStart int64
	HeaderEnd   int64
}

// Filename returns the package's on-disk basename.
func (p *Package) Filename() string {
	return filepath.Base(p.LocationHref)
}

// NEVRA renders the conventional name-epoch:version-release.arch form, with
// the epoch omitted when zero.
func (p *Package) NEVRA() string {
	if p.Epoch != "" && p.Epoch != "0" {
		return p.Name + "-" + p.Epoch + ":" + p.Version + "-" + p.Release + "." + p.Arch
	}
	return p.Name + "-" + p.Version + "-" + p.Release + "." + p.Arch
}

// Validate checks the invariants the sync engine relies on before touching
// the filesystem with a package's location.
func (p *Package) Validate() error {
	if p.LocationHref == "" {
		return errors.Wrap(errors.ErrInvalidLocationHref, "empty")
	}
	if !strings.HasSuffix(p.LocationHref, ".rpm") {
		return errors.Wrapf(errors.ErrInvalidLocationHref, "%q: not an rpm", p.LocationHref)
	}
	clean := filepath.ToSlash(filepath.Clean(p.LocationHref))
	if filepath.IsAbs(p.LocationHref) || clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.Wrapf(errors.ErrInvalidLocationHref, "%q: escapes repository root", p.LocationHref)
	}
	if p.PackageSize <= 0 {
		return errors.Wrapf(errors.ErrInvalidLocationHref, "%q: non-positive size", p.LocationHref)
	}
	return nil
}

// Raw XML shape of primary.xml. Attribute values stay strings so a single
// malformed number cannot sink the whole index.
type primaryXML struct {
	XMLName  xml.Name     `xml:"metadata"`
	Packages []packageXML `xml:"package"`
}

type packageXML struct {
	Name        string      `xml:"name"`
	Arch        string      `xml:"arch"`
	Version     versionXML  `xml:"version"`
	Checksum    checksumXML `xml:"checksum"`
	Summary     string      `xml:"summary"`
	Description string      `xml:"description"`
	Packager    string      `xml:"packager"`
	URL         string      `xml:"url"`
	Time        timeXML     `xml:"time"`
	Size        sizeXML     `xml:"size"`
	Location    Location    `xml:"location"`
	Format      formatXML   `xml:"format"`
}

type versionXML struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type checksumXML struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type timeXML struct {
	File  string `xml:"file,attr"`
	Build string `xml:"build,attr"`
}

type sizeXML struct {
	Package   string `xml:"package,attr"`
	Installed string `xml:"installed,attr"`
	Archive   string `xml:"archive,attr"`
}

type formatXML struct {
	License     string         `xml:"license"`
	Vendor      string         `xml:"vendor"`
	Group       string         `xml:"group"`
	BuildHost   string         `xml:"buildhost"`
	SourceRPM   string         `xml:"sourcerpm"`
	HeaderRange headerRangeXML `xml:"header-range"`
}

type headerRangeXML struct {
	Start string `xml:"start,attr"`
	End   string `xml:"end,attr"`
}

// ParsePrimary decodes an uncompressed primary.xml stream into package
// records.
func ParsePrimary(r io.Reader) ([]*Package, error) {
	var doc primaryXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrMetadataParse, err.Error())
	}

	packages := make([]*Package, 0, len(doc.Packages))
	for i := range doc.Packages {
		packages = append(packages, cookPackage(&doc.Packages[i]))
	}
	return packages, nil
}

// ParsePrimaryFile decodes a primary index file, selecting decompression by
// extension: .gz, .xz, or none.
func ParsePrimaryFile(path string) ([]*Package, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := decompressor(file, path)
	if err != nil {
		return nil, err
	}
	return ParsePrimary(reader)
}

func decompressor(r io.Reader, path string) (io.Reader, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "gzip %s", path)
		}
		return gz, nil
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "xz %s", path)
		}
		return xzr, nil
	case strings.HasSuffix(path, ".xml"):
		return r, nil
	case strings.HasSuffix(path, ".bz2"), strings.HasSuffix(path, ".zst"):
		return nil, errors.Wrapf(errors.ErrUnknownCompression, "%s", path)
	default:
		return r, nil
	}
}

func cookPackage(raw *packageXML) *Package {
	pkg := &Package{
		Name:          raw.Name,
		Arch:          raw.Arch,
		Epoch:         defaultString(raw.Version.Epoch, "0"),
		Version:       raw.Version.Ver,
		Release:       raw.Version.Rel,
		ChecksumType:  normalizeAlgo(defaultString(raw.Checksum.Type, "sha256")),
		Checksum:      strings.ToLower(strings.TrimSpace(raw.Checksum.Value)),
		Summary:       raw.Summary,
		Description:   raw.Description,
		Packager:      raw.Packager,
		URL:           raw.URL,
		FileTime:      parseInt64(raw.Time.File),
		BuildTime:     parseInt64(raw.Time.Build),
		PackageSize:   parseInt64(raw.Size.Package),
		InstalledSize: parseInt64(raw.Size.Installed),
		ArchiveSize:   parseInt64(raw.Size.Archive),
		LocationHref:  raw.Location.Href,
		License:       raw.Format.License,
		Vendor:        raw.Format.Vendor,
		Group:         raw.Format.Group,
		BuildHost:     raw.Format.BuildHost,
		SourceRPM:     raw.Format.SourceRPM,
		HeaderStart:   parseInt64(raw.Format.HeaderRange.Start),
		HeaderEnd:     parseInt64(raw.Format.HeaderRange.End),
	}
	return pkg
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func normalizeAlgo(algo string) string {
	// createrepo historically wrote "sha" for sha1.
	if algo == "sha" {
		return "sha1"
	}
	return strings.ToLower(algo)
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
