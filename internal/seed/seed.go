// Package seed reads and writes the initial contents of the stores: the
// protected identity store, the public data store and the jsonstore tree.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Data is the content of a seed file.
type Data struct {
	Protected domain.Snapshot `yaml:"protected,omitempty" json:"protected,omitempty"`
	Public    domain.Snapshot `yaml:"data,omitempty"      json:"data,omitempty"`
	JSONStore map[string]any  `yaml:"jsonstore,omitempty" json:"jsonstore,omitempty"`
}

type rawData struct {
	Protected map[string]any `yaml:"protected"`
	Public    map[string]any `yaml:"data"`
	JSONStore map[string]any `yaml:"jsonstore"`
}

// LoadFile reads a seed file. YAML and JSON are both accepted.
func LoadFile(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed.LoadFile: %w", err)
	}
	d, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("seed.LoadFile: %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes seed content.
func Parse(b []byte) (*Data, error) {
	var raw rawData
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	protected, err := snapshotFrom("protected", raw.Protected)
	if err != nil {
		return nil, err
	}
	public, err := snapshotFrom("data", raw.Public)
	if err != nil {
		return nil, err
	}

	d := &Data{Protected: protected, Public: public}
	if raw.JSONStore != nil {
		d.JSONStore, _ = domain.Normalize(raw.JSONStore).(map[string]any)
	}
	return d, nil
}

func snapshotFrom(section string, raw map[string]any) (domain.Snapshot, error) {
	out := make(domain.Snapshot, len(raw))
	for name, v := range raw {
		if v == nil {
			out[name] = map[string]domain.Record{}
			continue
		}
		coll, ok := domain.ToRecord(v)
		if !ok {
			return nil, fmt.Errorf("%s.%s: collection must be an object of records", section, name)
		}
		records := make(map[string]domain.Record, len(coll))
		for id, rv := range coll {
			rec, ok := domain.ToRecord(rv)
			if !ok {
				return nil, fmt.Errorf("%s.%s.%s: record must be an object", section, name, id)
			}
			rec[domain.FieldID] = id
			records[id] = rec
		}
		out[name] = records
	}
	return out, nil
}

// WriteFile writes d to path, as JSON when path ends in .json and as YAML
// otherwise.
func WriteFile(path string, d *Data) error {
	var (
		b   []byte
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err = json.MarshalIndent(d, "", "  ")
	} else {
		b, err = yaml.Marshal(d)
	}
	if err != nil {
		return fmt.Errorf("seed.WriteFile: encode: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("seed.WriteFile: %w", err)
	}
	return nil
}

// Merge copies every record and jsonstore key of other into d. Records of
// other win on id collisions.
func (d *Data) Merge(other *Data) {
	if other == nil {
		return
	}
	d.Protected = mergeSnapshot(d.Protected, other.Protected)
	d.Public = mergeSnapshot(d.Public, other.Public)
	for k, v := range other.JSONStore {
		if d.JSONStore == nil {
			d.JSONStore = make(map[string]any)
		}
		d.JSONStore[k] = domain.CopyValue(v)
	}
}

func mergeSnapshot(dst, src domain.Snapshot) domain.Snapshot {
	if dst == nil {
		dst = make(domain.Snapshot, len(src))
	}
	for name, records := range src {
		coll, ok := dst[name]
		if !ok {
			coll = make(map[string]domain.Record, len(records))
			dst[name] = coll
		}
		for id, rec := range records {
			coll[id] = rec.Clone()
		}
	}
	return dst
}

// Count returns the number of records in both stores.
func (d *Data) Count() int {
	n := 0
	for _, s := range []domain.Snapshot{d.Protected, d.Public} {
		for _, records := range s {
			n += len(records)
		}
	}
	return n
}
