// Package seeder publishes fixture records into Kafka topics at startup so
// fresh environments come up with data. Seed files live in <dir>/default
// plus an overlay named after the runtime environment.
package seeder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"stencil/internal/logging"
	"stencil/kafka"
)

// Producer is the slice of the kafka producer the seeder needs.
type Producer interface {
	SendJSON(topic string, key []byte, value any) (*kafka.DeliveryReceipt, error)
}

// Record is one seed message: an optional key and an arbitrary JSON value.
type Record struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Run publishes every record under dir/default and dir/<environment>, in
// that order. Missing directories are skipped, not errors, so services
// without fixtures for an environment run unchanged.
func Run(p Producer, dir, environment string) error {
	for _, folder := range []string{"default", environment} {
		path := filepath.Join(dir, folder)
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			logging.L().Info("seeder: directory does not exist, skipping", "path", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("seeder: stat %s: %w", path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("seeder: %s is not a directory", path)
		}
		if err := seedDir(p, path); err != nil {
			return err
		}
	}
	return nil
}

func seedDir(p Producer, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("seeder: read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		switch ext {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("seeder: read %s: %w", path, err)
		}
		var records []Record
		if ext == ".json" {
			err = json.Unmarshal(raw, &records)
		} else {
			err = yaml.Unmarshal(raw, &records)
		}
		if err != nil {
			return fmt.Errorf("seeder: parse %s: %w", path, err)
		}
		if len(records) == 0 {
			continue
		}

		topic := topicName(entry.Name())
		for _, rec := range records {
			var key []byte
			if rec.Key != "" {
				key = []byte(rec.Key)
			}
			if _, err := p.SendJSON(topic, key, rec.Value); err != nil {
				return fmt.Errorf("seeder: seed %s: %w", topic, err)
			}
		}
		logging.L().Info("seeder: seeded topic", "topic", topic, "records", len(records), "file", entry.Name())
	}
	return nil
}

// topicName maps a seed file to its topic: the extension goes, and so does
// a numeric "1_" style prefix used to order files within a directory.
func topicName(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.Index(name, "_"); i > 0 {
		if _, err := strconv.Atoi(name[:i]); err == nil {
			name = name[i+1:]
		}
	}
	return name
}
