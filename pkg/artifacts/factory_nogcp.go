//go:build !gcp

package artifacts

import (
	"context"
	"fmt"
)

func newGCSReplica(ctx context.Context, cfg ReplicaConfig) (Store, error) {
	return nil, fmt.Errorf("GCS replica is not enabled in this build (use -tags gcp)")
}
