package rpmmd

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/glorpus-work/yumsync/pkg/errors"
)

// Emission-side document shapes. encoding/xml cannot round-trip prefixed
// namespaces, so the rpm: prefix is written literally, the same way
// createrepo emits it.

type primaryOut struct {
	XMLName  xml.Name     `xml:"metadata"`
	Xmlns    string       `xml:"xmlns,attr"`
	XmlnsRPM string       `xml:"xmlns:rpm,attr"`
	Count    int          `xml:"packages,attr"`
	Packages []packageOut `xml:"package"`
}

type packageOut struct {
	Type        string      `xml:"type,attr"`
	Name        string      `xml:"name"`
	Arch        string      `xml:"arch"`
	Version     versionOut  `xml:"version"`
	Checksum    checksumOut `xml:"checksum"`
	Summary     string      `xml:"summary"`
	Description string      `xml:"description"`
	Packager    string      `xml:"packager"`
	URL         string      `xml:"url"`
	Time        timeOut     `xml:"time"`
	Size        sizeOut     `xml:"size"`
	Location    Location    `xml:"location"`
	Format      formatOut   `xml:"format"`
}

type versionOut struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type checksumOut struct {
	Type  string `xml:"type,attr"`
	PkgID string `xml:"pkgid,attr"`
	Value string `xml:",chardata"`
}

type timeOut struct {
	File  int64 `xml:"file,attr"`
	Build int64 `xml:"build,attr"`
}

type sizeOut struct {
	Package   int64 `xml:"package,attr"`
	Installed int64 `xml:"installed,attr"`
	Archive   int64 `xml:"archive,attr"`
}

type formatOut struct {
	License     string         `xml:"rpm:license"`
	Vendor      string         `xml:"rpm:vendor"`
	Group       string         `xml:"rpm:group"`
	BuildHost   string         `xml:"rpm:buildhost"`
	SourceRPM   string         `xml:"rpm:sourcerpm"`
	HeaderRange headerRangeOut `xml:"rpm:header-range"`
}

type headerRangeOut struct {
	Start int64 `xml:"start,attr"`
	End   int64 `xml:"end,attr"`
}

// WritePrimary renders packages as a primary.xml document.
func WritePrimary(w io.Writer, packages []*Package) error {
	doc := primaryOut{
		Xmlns:    XMLNSCommon,
		XmlnsRPM: XMLNSRPM,
		Count:    len(packages),
		Packages: make([]packageOut, 0, len(packages)),
	}

	for _, p := range packages {
		doc.Packages = append(doc.Packages, packageOut{
			Type: "rpm",
			Name: p.Name,
			Arch: p.Arch,
			Version: versionOut{
				Epoch: defaultString(p.Epoch, "0"),
				Ver:   p.Version,
				Rel:   p.Release,
			},
			Checksum: checksumOut{
				Type:  defaultString(p.ChecksumType, "sha256"),
				PkgID: "YES",
				Value: p.Checksum,
			},
			Summary:     p.Summary,
			Description: p.Description,
			Packager:    p.Packager,
			URL:         p.URL,
			Time:        timeOut{File: p.FileTime, Build: p.BuildTime},
			Size: sizeOut{
				Package:   p.PackageSize,
				Installed: p.InstalledSize,
				Archive:   p.ArchiveSize,
			},
			Location: Location{Href: p.LocationHref},
			Format: formatOut{
				License:     p.License,
				Vendor:      p.Vendor,
				Group:       p.Group,
				BuildHost:   p.BuildHost,
				SourceRPM:   p.SourceRPM,
				HeaderRange: headerRangeOut{Start: p.HeaderStart, End: p.HeaderEnd},
			},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "failed to encode primary.xml")
	}
	_, err := io.WriteString(w, "\n")
	return err
}

type repomdOut struct {
	XMLName  xml.Name  `xml:"repomd"`
	Xmlns    string    `xml:"xmlns,attr"`
	XmlnsRPM string    `xml:"xmlns:rpm,attr"`
	Revision string    `xml:"revision"`
	Data     []dataOut `xml:"data"`
}

type dataOut struct {
	Type         string      `xml:"type,attr"`
	Checksum     checksumRef `xml:"checksum"`
	OpenChecksum checksumRef `xml:"open-checksum"`
	Location     Location    `xml:"location"`
	Timestamp    int64       `xml:"timestamp"`
	Size         int64       `xml:"size"`
	OpenSize     int64       `xml:"open-size"`
}

type checksumRef struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// DataEntry describes one stream for WriteRepomd.
type DataEntry struct {
	Type         string
	Href         string
	Checksum     string
	OpenChecksum string
	Size         int64
	OpenSize     int64
	Timestamp    int64
}

// WriteRepomd renders a repomd.xml referencing the given data entries, all
// checksums SHA-256.
func WriteRepomd(w io.Writer, revision int64, entries []DataEntry) error {
	doc := repomdOut{
		Xmlns:    XMLNSRepo,
		XmlnsRPM: XMLNSRPM,
		Revision: strconv.FormatInt(revision, 10),
	}
	for _, e := range entries {
		doc.Data = append(doc.Data, dataOut{
			Type:         e.Type,
			Checksum:     checksumRef{Type: "sha256", Value: e.Checksum},
			OpenChecksum: checksumRef{Type: "sha256", Value: e.OpenChecksum},
			Location:     Location{Href: e.Href},
			Timestamp:    e.Timestamp,
			Size:         e.Size,
			OpenSize:     e.OpenSize,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "failed to encode repomd.xml")
	}
	_, err := io.WriteString(w, "\n")
	return err
}
