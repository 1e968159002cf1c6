package config

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

func loadFromJSON(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, into)
}

func loadFromYAML(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, into)
}
