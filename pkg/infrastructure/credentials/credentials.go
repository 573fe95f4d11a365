// Package credentials turns the configured credentials reference into Google
// client options. A reference is empty (application default credentials), a
// path to a key file, or secretmanager://projects/P/secrets/S/versions/V.
package credentials

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

const secretScheme = "secretmanager://"

// AccessFunc fetches the payload of a secret version by resource name
type AccessFunc func(ctx context.Context, name string) ([]byte, error)

// Resolver resolves credential references
type Resolver struct {
	access AccessFunc
}

// NewResolver uses access for secretmanager:// references; nil dials Secret
// Manager with application default credentials on first use.
func NewResolver(access AccessFunc) *Resolver {
	if access == nil {
		access = accessSecretManager
	}
	return &Resolver{access: access}
}

// IsSecretRef reports whether ref names a Secret Manager version
func IsSecretRef(ref string) bool {
	return strings.HasPrefix(ref, secretScheme)
}

// ClientOptions resolves ref into options for Google API clients
func (r *Resolver) ClientOptions(ctx context.Context, ref string) ([]option.ClientOption, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, nil
	case IsSecretRef(ref):
		name := strings.TrimPrefix(ref, secretScheme)
		if !strings.HasPrefix(name, "projects/") || !strings.Contains(name, "/secrets/") {
			return nil, fmt.Errorf("invalid secret reference %q (expected secretmanager://projects/P/secrets/S/versions/V)", ref)
		}
		if !strings.Contains(name, "/versions/") {
			name += "/versions/latest"
		}
		payload, err := r.access(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to access secret %s: %w", name, err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(payload)}, nil
	default:
		return []option.ClientOption{option.WithCredentialsFile(ref)}, nil
	}
}

func accessSecretManager(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient failed: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return resp.GetPayload().GetData(), nil
}
