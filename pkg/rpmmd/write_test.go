package rpmmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePrimaryRoundTrip(t *testing.T) {
	in := []*Package{
		{
			Name:          "pkg",
			Arch:          "x86_64",
			Epoch:         "0",
			Version:       "1.0",
			Release:       "2.el7",
			ChecksumType:  "sha256",
			Checksum:      "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
			Summary:       "pkg",
			Description:   "pkg",
			FileTime:      1700000000,
			BuildTime:     1700000000,
			PackageSize:   10,
			InstalledSize: 10,
			ArchiveSize:   10,
			LocationHref:  "Packages/pkg-1.0-2.el7.x86_64.rpm",
			License:       "Unknown",
			Group:         "Unspecified",
			HeaderEnd:     10,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePrimary(&buf, in))

	out := buf.String()
	assert.Contains(t, out, `xmlns="http://linux.duke.edu/metadata/common"`)
	assert.Contains(t, out, `xmlns:rpm="http://linux.duke.edu/metadata/rpm"`)
	assert.Contains(t, out, `packages="1"`)
	assert.Contains(t, out, "<rpm:license>Unknown</rpm:license>")
	assert.Contains(t, out, `<rpm:header-range start="0" end="10">`)

	parsed, err := ParsePrimary(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, in[0], parsed[0])
}

func TestWriteRepomdRoundTrip(t *testing.T) {
	entries := []DataEntry{
		{
			Type:         "primary",
			Href:         "repodata/primary.xml.gz",
			Checksum:     "1111111111111111111111111111111111111111111111111111111111111111",
			OpenChecksum: "2222222222222222222222222222222222222222222222222222222222222222",
			Size:         512,
			OpenSize:     4096,
			Timestamp:    1700000000,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRepomd(&buf, 1700000000, entries))

	assert.Contains(t, buf.String(), `xmlns="http://linux.duke.edu/metadata/repo"`)

	md, err := ParseRepomd(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "1700000000", md.Revision)
	require.Len(t, md.Data, 1)
	assert.Equal(t, "primary", md.Data[0].Type)
	assert.Equal(t, entries[0].Checksum, md.Data[0].Checksum.Value)
	assert.Equal(t, entries[0].OpenChecksum, md.Data[0].OpenChecksum.Value)
	assert.Equal(t, "512", md.Data[0].Size)

	href, ok := md.DataHref("primary")
	require.True(t, ok)
	assert.Equal(t, "repodata/primary.xml.gz", href)
}
