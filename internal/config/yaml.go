package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Config  `yaml:",inline"`
	Records []yamlRecord `yaml:"records"`
}

type yamlRecord struct {
	Name    string   `yaml:"name"`
	Targets []string `yaml:"targets"`
}

func loadYAML(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file yamlFile
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("invalid configuration file format: %w", err)
	}

	cfg := file.Config
	names := make(map[string]string)
	for _, r := range file.Records {
		rec, err := NewDNSRecord(r.Name, r.Targets)
		if err != nil {
			return nil, fmt.Errorf("records: %w", err)
		}
		canonical := CanonicalName(rec.Name)
		if prev, ok := names[canonical]; ok {
			return nil, fmt.Errorf("records: hostname %q duplicates %q", rec.Name, prev)
		}
		names[canonical] = rec.Name
		cfg.Records = append(cfg.Records, rec)
	}
	return &cfg, nil
}
