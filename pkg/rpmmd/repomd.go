// Package rpmmd models the createrepo metadata pair used by RPM clients:
// repodata/repomd.xml and the primary package index it references. The parse
// side is deliberately tolerant of the variation found across real mirrors;
// the emit side writes the minimal subset a client needs.
//
// Canonical namespaces:
//
//	repo   http://linux.duke.edu/metadata/repo
//	rpm    http://linux.duke.edu/metadata/rpm
//	common http://linux.duke.edu/metadata/common
package rpmmd

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/glorpus-work/yumsync/pkg/errors"
)

// Namespace constants for emitted documents.
const (
	XMLNSRepo   = "http://linux.duke.edu/metadata/repo"
	XMLNSRPM    = "http://linux.duke.edu/metadata/rpm"
	XMLNSCommon = "http://linux.duke.edu/metadata/common"
)

// Repomd is the parsed form of repodata/repomd.xml.
type Repomd struct {
	XMLName  xml.Name `xml:"repomd"`
	Revision string   `xml:"revision"`
	Data     []Data   `xml:"data"`
}

// Data is one metadata stream entry (primary, filelists, other, group, ...).
type Data struct {
	Type         string   `xml:"type,attr"`
	Checksum     Checksum `xml:"checksum"`
	OpenChecksum Checksum `xml:"open-checksum"`
	Location     Location `xml:"location"`
	// Numeric fields are kept as strings: some upstreams publish
	// fractional timestamps and the sync engine never does arithmetic
	// on them.
	Timestamp string `xml:"timestamp"`
	Size      string `xml:"size"`
	OpenSize  string `xml:"open-size"`
}

// Checksum is a digest value with its algorithm name.
type Checksum struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Location is an href relative to the repository root.
type Location struct {
	Href string `xml:"href,attr"`
}

// ParseRepomd decodes a repomd.xml document.
func ParseRepomd(r io.Reader) (*Repomd, error) {
	var md Repomd
	if err := xml.NewDecoder(r).Decode(&md); err != nil {
		return nil, errors.Wrap(errors.ErrMetadataParse, err.Error())
	}
	return &md, nil
}

// ParseRepomdFile decodes the repomd.xml at path.
func ParseRepomdFile(path string) (*Repomd, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseRepomd(file)
}

// DataHref returns the location href of the data entry with the given type.
func (md *Repomd) DataHref(dataType string) (string, bool) {
	for _, d := range md.Data {
		if d.Type == dataType {
			return d.Location.Href, d.Location.Href != ""
		}
	}
	return "", false
}
