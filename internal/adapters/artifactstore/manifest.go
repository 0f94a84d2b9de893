package artifactstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dgaops/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// ManifestName is the file written next to the artifacts.
const ManifestName = "manifest.yaml"

const manifestPermission = 0o640

// File describes one artifact on disk.
type File struct {
	Path   string `yaml:"path"`
	Digest string `yaml:"digest"`
	Size   int64  `yaml:"size"`
}

// Manifest records what one export produced.
type Manifest struct {
	RunID       string    `yaml:"run_id"`
	CreatedAt   time.Time `yaml:"created_at"`
	Project     string    `yaml:"project,omitempty"`
	Leader      string    `yaml:"leader"`
	Candidates  []string  `yaml:"candidates"`
	PortableSrc string    `yaml:"portable_source,omitempty"`
	Portable    *File     `yaml:"portable,omitempty"`
	Native      File      `yaml:"native"`
}

// NewManifest digests the artifacts in res. Paths are stored relative to
// dir when they live inside it.
func NewManifest(dir, project string, lb model.Leaderboard, res model.ArtifactResult) (*Manifest, error) {
	m := &Manifest{
		RunID:       uuid.NewString(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Project:     project,
		Leader:      res.NativeModelID,
		PortableSrc: res.SourceModelID,
	}
	for _, ref := range lb {
		m.Candidates = append(m.Candidates, ref.ID)
	}

	native, err := describe(dir, res.NativePath)
	if err != nil {
		return nil, err
	}
	m.Native = native

	if res.Portable() {
		portable, err := describe(dir, res.PortablePath)
		if err != nil {
			return nil, err
		}
		m.Portable = &portable
	}
	return m, nil
}

func describe(dir, path string) (File, error) {
	digest, size, err := DigestFile(path)
	if err != nil {
		return File{}, err
	}
	rel := path
	if r, err := filepath.Rel(dir, path); err == nil && filepath.IsLocal(r) {
		rel = r
	}
	return File{Path: rel, Digest: digest, Size: size}, nil
}

// WriteManifest writes m as YAML to dir/manifest.yaml and returns the path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, manifestPermission); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads dir/manifest.yaml.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
