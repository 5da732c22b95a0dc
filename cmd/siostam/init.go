package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

const starterConfig = `# Siostam maps the sub-systems of your architecture into one graph.
# It scans every target for descriptor files and serves the result.
suffix: sub-system.yaml
workdir: data

server:
  address: 127.0.0.1
  port: 4300
  static_dir: static
  cors_allowed_origins: []

updater:
  # How long a published graph stays fresh before it is rebuilt.
  interval: 60s
  # How often the scheduler checks freshness.
  tick: 1s

targets:
  - name: local
    folder: .
  # Git targets are cloned into the workdir and kept up to date:
  # - name: my-service
  #   url: git@example.com:org/my-service.git
  #   branch: main
`

const starterEnv = `# Values here override siostam.yaml. Lines are KEY=VALUE.
# SIOSTAM_SERVER_SOCKET_ADDRESS=0.0.0.0
# SIOSTAM_SERVER_PORT=4300
# SIOSTAM_LOG_LEVEL=debug
# SIOSTAM_ENVIRONMENT=production
`

const starterDescriptor = `# Describe the sub-systems living in this repository. Any file whose
# name ends with the configured suffix is picked up.
subsystems:
  - id: example
    name: Example subsystem
    description: Replace this with a real part of your architecture.
    dependencies: []
`

// runInit writes the starter files into the current directory. It
// refuses to overwrite anything that already exists.
func runInit(logger *zap.Logger) error {
	files := []struct {
		name    string
		content string
	}{
		{"siostam.yaml", starterConfig},
		{".env", starterEnv},
		{"sub-system.yaml", starterDescriptor},
	}

	for _, f := range files {
		if err := writeNew(f.name, f.content); err != nil {
			return err
		}
		logger.Info("Wrote starter file", zap.String("file", f.name))
	}

	logger.Info("Initialisation complete")
	return nil
}

func writeNew(name, content string) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("while creating the %s file: %w", name, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("while writing to the %s file: %w", name, err)
	}
	return nil
}
