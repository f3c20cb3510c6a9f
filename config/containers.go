/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
)

// containersFile is the layout of a container definition file:
//
//	containers:
//	  - name: orders
//	    partitionKeyPaths: [/tenantId, /userId]
//	  - name: audit
type containersFile struct {
	Containers []partitionkey.ContainerInfo `yaml:"containers"`
}

// LoadContainers reads and validates container definitions. A container
// without paths is partitioned on partitionkey.DefaultPath.
func LoadContainers(path string) ([]partitionkey.ContainerInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read containers file %s: %w", path, err)
	}
	return ParseContainers(raw)
}

// ParseContainers decodes container definitions from YAML.
func ParseContainers(raw []byte) ([]partitionkey.ContainerInfo, error) {
	var f containersFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.NewConfigurationError("containers", err.Error())
	}

	seen := make(map[string]bool, len(f.Containers))
	for i, c := range f.Containers {
		if len(c.PartitionKeyPaths) == 0 {
			f.Containers[i] = partitionkey.Container(c.Name)
		}
		if err := f.Containers[i].Validate(); err != nil {
			return nil, fmt.Errorf("container %d: %w", i+1, err)
		}
		if seen[c.Name] {
			return nil, errors.NewConfigurationError("containers", fmt.Sprintf("container %q is defined twice", c.Name))
		}
		seen[c.Name] = true
	}
	return f.Containers, nil
}
