package s3storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/selcat/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.S3Config
		wantErr bool
	}{
		{
			name: "minio endpoint",
			cfg:  config.S3Config{Endpoint: "localhost:9000", Bucket: "scraping", AccessKey: "a", SecretKey: "b"},
		},
		{
			name:    "bucket not set",
			cfg:     config.S3Config{Endpoint: "localhost:9000"},
			wantErr: true,
		},
		{
			name:    "endpoint with scheme is rejected by minio",
			cfg:     config.S3Config{Endpoint: "http://localhost:9000", Bucket: "scraping"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Bucket, client.Bucket())
		})
	}
}
