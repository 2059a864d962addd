package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/yumsync/pkg/errors"
	"github.com/glorpus-work/yumsync/pkg/fetch/mocks"
)

func TestHasChangedMissingLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	// No GET is issued when the local copy is absent.

	detector := NewDetector(client)
	assert.True(t, detector.HasChanged(context.Background(), "http://upstream/repodata/repomd.xml", filepath.Join(t.TempDir(), "repomd.xml")))
}

func TestHasChangedFetchErrorBiasesTrue(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	local := filepath.Join(t.TempDir(), "repomd.xml")
	require.NoError(t, os.WriteFile(local, []byte("<repomd/>"), 0o644))

	client.EXPECT().
		FetchBytes(gomock.Any(), "http://upstream/repodata/repomd.xml").
		Return(nil, errors.ErrDownloadFailed)

	detector := NewDetector(client)
	assert.True(t, detector.HasChanged(context.Background(), "http://upstream/repodata/repomd.xml", local))
}

func TestHasChangedComparesMD5(t *testing.T) {
	tests := []struct {
		name   string
		local  string
		remote string
		want   bool
	}{
		{name: "identical", local: "<repomd revision='1'/>", remote: "<repomd revision='1'/>", want: false},
		{name: "different", local: "<repomd revision='1'/>", remote: "<repomd revision='2'/>", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)

			local := filepath.Join(t.TempDir(), "repomd.xml")
			require.NoError(t, os.WriteFile(local, []byte(tt.local), 0o644))

			client.EXPECT().
				FetchBytes(gomock.Any(), gomock.Any()).
				Return([]byte(tt.remote), nil)

			detector := NewDetector(client)
			assert.Equal(t, tt.want, detector.HasChanged(context.Background(), "http://upstream/repodata/repomd.xml", local))
		})
	}
}
