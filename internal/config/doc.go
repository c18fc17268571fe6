// Package config loads, normalizes, and validates reclaim configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: state and log directories, the fallback quarantine
// location, cleanup scheduling, recognized media extensions, and the
// collaborator endpoints (DVR inventory service, pipeline execution history).
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
