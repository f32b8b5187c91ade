// Package registry publishes packaged artifacts to an OCI registry
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/shepherdjerred/conductor/pkg/logger"
)

const artifactType = "application/vnd.conductor.artifact.v1"

// Credentials holds registry authentication
type Credentials struct {
	Host     string
	Username string
	Password string
}

// Publisher pushes packaged artifacts to a registry via ORAS. Pushes are
// idempotent per tag: re-pushing identical content resolves to the same
// digest.
type Publisher struct {
	credentials Credentials
	logger      logger.Logger
}

// New creates a Publisher
func New(log logger.Logger, creds Credentials) *Publisher {
	return &Publisher{
		credentials: creds,
		logger:      log,
	}
}

// ParseReference splits an artifact reference into its repository and tag.
// A reference without a tag defaults to "latest".
func ParseReference(reference string) (repo, tag string) {
	slash := strings.LastIndex(reference, "/")
	colon := strings.LastIndex(reference, ":")
	if colon > slash {
		return reference[:colon], reference[colon+1:]
	}
	return reference, "latest"
}

// Publish packages every file under sourceDir as artifact layers and pushes
// the result to the given reference. Returns the pushed reference.
func (p *Publisher) Publish(ctx context.Context, sourceDir, reference string) (string, error) {
	repoRef, tag := ParseReference(reference)

	store, err := file.New(sourceDir)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact dir %s: %w", sourceDir, err)
	}
	defer store.Close()

	var layers []ocispec.Descriptor
	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		desc, err := store.Add(ctx, filepath.ToSlash(rel), "", path)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", rel, err)
		}
		layers = append(layers, desc)
		return nil
	})
	if err != nil {
		return "", err
	}

	manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, artifactType,
		oras.PackManifestOptions{Layers: layers})
	if err != nil {
		return "", fmt.Errorf("failed to pack manifest: %w", err)
	}
	if err := store.Tag(ctx, manifest, tag); err != nil {
		return "", fmt.Errorf("failed to tag manifest: %w", err)
	}

	repo, err := remote.NewRepository(repoRef)
	if err != nil {
		return "", fmt.Errorf("invalid repository %s: %w", repoRef, err)
	}
	repo.Client = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: auth.StaticCredential(p.credentials.Host, auth.Credential{
			Username: p.credentials.Username,
			Password: p.credentials.Password,
		}),
	}

	if _, err := oras.Copy(ctx, store, tag, repo, tag, oras.DefaultCopyOptions); err != nil {
		return "", fmt.Errorf("failed to push %s: %w", reference, err)
	}

	p.logger.Success("Pushed artifact", logger.WithField("reference", reference))
	return reference, nil
}
