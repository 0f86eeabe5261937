// Package config loads hello server settings from YAML or JSON with koanf.
// Values missing from the file keep their Default.
package config
