/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package partitionkey

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/suparena/cleardata/errors"
)

// DefaultPath is the partition key path of envelopes written by this library.
const DefaultPath = "/partitionKey"

// reservedPath may only be used as the top-level partition key path.
const reservedPath = "/id"

const containerBuilderName = "partitionkey.ContainerBuilder"

// ContainerInfo describes a container and its partition key paths.
type ContainerInfo struct {
	Name              string   `yaml:"name" json:"name"`
	PartitionKeyPaths []string `yaml:"partitionKeyPaths" json:"partitionKeyPaths"`
}

// Container returns a single-level container partitioned on DefaultPath.
func Container(name string) ContainerInfo {
	return ContainerInfo{Name: name, PartitionKeyPaths: []string{DefaultPath}}
}

// Hierarchical reports whether the container uses more than one level.
func (c ContainerInfo) Hierarchical() bool {
	return len(c.PartitionKeyPaths) > 1
}

// Paths returns the configured paths, or DefaultPath when none are set.
func (c ContainerInfo) Paths() []string {
	if len(c.PartitionKeyPaths) == 0 {
		return []string{DefaultPath}
	}
	out := make([]string, len(c.PartitionKeyPaths))
	copy(out, c.PartitionKeyPaths)
	return out
}

// Validate checks the name and partition key paths.
func (c ContainerInfo) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewConfigurationError("container", "name is required")
	}
	paths := c.Paths()
	if len(paths) > MaxLevels {
		return errors.NewConfigurationError("container "+c.Name,
			fmt.Sprintf("at most %d partition key paths are supported, got %d", MaxLevels, len(paths)))
	}
	seen := make(map[string]struct{}, len(paths))
	for i, p := range paths {
		if err := validatePath(p); err != nil {
			return errors.NewConfigurationError("container "+c.Name, err.Error())
		}
		if i > 0 && p == reservedPath {
			return errors.NewConfigurationError("container "+c.Name,
				fmt.Sprintf("%s may only be used as the level 1 path, found at level %d", reservedPath, i+1))
		}
		if _, dup := seen[p]; dup {
			return errors.NewConfigurationError("container "+c.Name, fmt.Sprintf("duplicate partition key path %q", p))
		}
		seen[p] = struct{}{}
	}
	return nil
}

func validatePath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("partition key path %q must start with /", p)
	}
	if strings.IndexFunc(p, unicode.IsSpace) >= 0 {
		return fmt.Errorf("partition key path %q must not contain whitespace", p)
	}
	for _, seg := range strings.Split(p[1:], "/") {
		if seg == "" {
			return fmt.Errorf("partition key path %q has an empty segment", p)
		}
	}
	return nil
}

// ContainerBuilder assembles a ContainerInfo fluently.
type ContainerBuilder struct {
	info ContainerInfo
	err  error
}

// NewContainer starts a container definition.
func NewContainer(name string) *ContainerBuilder {
	b := &ContainerBuilder{info: ContainerInfo{Name: name}}
	if strings.TrimSpace(name) == "" {
		b.err = errors.NewConfigurationError("container", "name is required")
	}
	return b
}

// WithPartitionKeyPath sets the level 1 path.
func (b *ContainerBuilder) WithPartitionKeyPath(path string) *ContainerBuilder {
	if b.err != nil {
		return b
	}
	if len(b.info.PartitionKeyPaths) > 0 {
		b.err = errors.NewStateError(containerBuilderName, "level 1 path is already configured")
		return b
	}
	b.info.PartitionKeyPaths = []string{path}
	return b
}

// AddPartitionKeyPath appends the next hierarchical level.
func (b *ContainerBuilder) AddPartitionKeyPath(path string) *ContainerBuilder {
	if b.err != nil {
		return b
	}
	if len(b.info.PartitionKeyPaths) == 0 {
		b.err = errors.NewStateError(containerBuilderName, "level 1 path must be configured first")
		return b
	}
	if len(b.info.PartitionKeyPaths) >= MaxLevels {
		b.err = errors.NewConfigurationError("container "+b.info.Name,
			fmt.Sprintf("at most %d partition key paths are supported", MaxLevels))
		return b
	}
	b.info.PartitionKeyPaths = append(b.info.PartitionKeyPaths, path)
	return b
}

// Build validates and returns the container definition.
func (b *ContainerBuilder) Build() (ContainerInfo, error) {
	if b.err != nil {
		return ContainerInfo{}, b.err
	}
	if err := b.info.Validate(); err != nil {
		return ContainerInfo{}, err
	}
	return ContainerInfo{Name: b.info.Name, PartitionKeyPaths: b.info.Paths()}, nil
}
