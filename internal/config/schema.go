package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema is the JSON Schema every loaded configuration must
// satisfy, regardless of the serialization it arrived in.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "replicore configuration",
  "type": "object",
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "replication": {
      "type": "object",
      "properties": {
        "default_push_mode": {"enum": ["disabled", "passive", "one-shot", "continuous"]},
        "default_pull_mode": {"enum": ["disabled", "passive", "one-shot", "continuous"]},
        "heartbeat_sec": {"type": "integer", "minimum": 0},
        "max_retries": {"type": "integer", "minimum": 0},
        "max_retry_interval_sec": {"type": "integer", "minimum": 0}
      },
      "additionalProperties": false
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "warning", "error"]},
        "format": {"enum": ["text", "json"]},
        "output": {"enum": ["stdout", "stderr", "file", "both"]},
        "file_path": {"type": "string"},
        "max_size_mb": {"type": "integer", "minimum": 0},
        "max_backups": {"type": "integer", "minimum": 0}
      },
      "additionalProperties": false
    }
  },
  "required": ["version"],
  "additionalProperties": false
}`

var (
	compiledSchema *jsonschema.Schema
	schemaOnce     sync.Once
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("config.schema.json")
	})
	return compiledSchema, schemaErr
}

// ValidateSchema checks the configuration against the embedded JSON
// Schema. The config is round-tripped through JSON so the same rules
// apply whether it was loaded from TOML, YAML, or JSON.
func (c *Config) ValidateSchema() error {
	s, err := schema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("config schema validation: %w", err)
	}
	return nil
}
