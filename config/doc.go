/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads cleardata settings from defaults, an optional YAML
// file and CLEARDATA_* environment variables, and container definitions
// from YAML.
//
//	cfg, err := config.Load("cleardata.yaml", "")
//	containers, err := config.LoadContainers(cfg.ContainersFile)
package config
