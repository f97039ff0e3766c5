package artifacts

import (
	"context"
	"fmt"
	"path"
)

// ReplicaType selects where output is copied besides the data directory.
type ReplicaType string

const (
	ReplicaNone  ReplicaType = "none"
	ReplicaS3    ReplicaType = "s3"
	ReplicaMinio ReplicaType = "minio"
	ReplicaGCS   ReplicaType = "gcs"
)

// ReplicaConfig carries the settings for every replica backend; only the
// fields for Type are read.
type ReplicaConfig struct {
	Type      ReplicaType
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewReplica builds the configured replica, or nil for ReplicaNone.
func NewReplica(ctx context.Context, cfg ReplicaConfig) (Store, error) {
	switch cfg.Type {
	case "", ReplicaNone:
		return nil, nil
	case ReplicaS3:
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		s, err := NewS3Store(ctx, S3StoreConfig{Bucket: cfg.Bucket, Region: region, Endpoint: cfg.Endpoint, Prefix: cfg.Prefix})
		if err != nil {
			return nil, err
		}
		return s, nil
	case ReplicaMinio:
		s, err := NewMinioStore(MinioConfig{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case ReplicaGCS:
		return newGCSReplica(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported output replica type: %s", cfg.Type)
	}
}

// NewOutput opens the data directory and attaches the configured replica.
func NewOutput(ctx context.Context, dataDir string, cfg ReplicaConfig) (*Mirror, error) {
	local, err := NewFileStore(dataDir)
	if err != nil {
		return nil, err
	}
	replica, err := NewReplica(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if replica == nil {
		return NewMirror(local), nil
	}
	return NewMirror(local, replica), nil
}

// ContentType guesses a MIME type from the key's extension.
func ContentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".yaml":
		return "application/yaml"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".html", ".htm":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
