package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw  string
		want Location
	}{
		{"stores.yaml", Location{Raw: "stores.yaml", Scheme: "file", Key: "stores.yaml"}},
		{"file:///etc/replisync/stores.json", Location{Raw: "file:///etc/replisync/stores.json", Scheme: "file", Key: "/etc/replisync/stores.json"}},
		{"gs://catalogs/prod/stores.yaml", Location{Raw: "gs://catalogs/prod/stores.yaml", Scheme: "gs", Bucket: "catalogs", Key: "prod/stores.yaml"}},
		{"S3://catalogs/stores.toml", Location{Raw: "S3://catalogs/stores.toml", Scheme: "s3", Bucket: "catalogs", Key: "stores.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocationErrors(t *testing.T) {
	for _, raw := range []string{"", "gs://bucket-only", "s3:///key-only"} {
		_, err := ParseLocation(raw)
		assert.Error(t, err, raw)
	}
}

func TestRegisterSourcePanics(t *testing.T) {
	assert.Panics(t, func() {
		RegisterSource("broken", SourceRegistration{})
	})
}
