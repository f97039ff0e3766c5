//go:build gcp

package artifacts

import "context"

func newGCSReplica(ctx context.Context, cfg ReplicaConfig) (Store, error) {
	s, err := NewGCSStore(ctx, GCSStoreConfig{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
	if err != nil {
		return nil, err
	}
	return s, nil
}
