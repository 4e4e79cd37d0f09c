package registry

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Snapshot schema versions. A library module writes the current
// version; downstream builds upgrade older snapshots one step at a
// time into the newest layout before merging.
const (
	snapshotVersion1 = 1
	snapshotVersion2 = 2
	// SnapshotVersion is the current schema version.
	SnapshotVersion = 3
)

type adapterEntry struct {
	Attribute string           `yaml:"attribute"`
	View      string           `yaml:"view"`
	Value     string           `yaml:"value"`
	Method    MethodDescriptor `yaml:"method"`
}

type renamedEntry struct {
	Attribute string           `yaml:"attribute"`
	View      string           `yaml:"view"`
	Method    MethodDescriptor `yaml:"method"`
}

type conversionEntry struct {
	From   string           `yaml:"from"`
	To     string           `yaml:"to"`
	Method MethodDescriptor `yaml:"method"`
}

type multiEntry struct {
	View       string           `yaml:"view"`
	Attributes []string         `yaml:"attributes"`
	Params     []string         `yaml:"params"`
	RequireAll bool             `yaml:"require_all,omitempty"`
	Method     MethodDescriptor `yaml:"method"`
}

type untaggableEntry struct {
	Type       string `yaml:"type"`
	DeclaredBy string `yaml:"declared_by"`
}

type inverseAdapterEntry struct {
	Attribute string           `yaml:"attribute"`
	Event     string           `yaml:"event"`
	View      string           `yaml:"view"`
	Value     string           `yaml:"value"`
	Method    MethodDescriptor `yaml:"method"`
}

type inverseMethodEntry struct {
	Attribute string           `yaml:"attribute"`
	Event     string           `yaml:"event"`
	View      string           `yaml:"view"`
	Method    MethodDescriptor `yaml:"method"`
}

type twoWayEntry struct {
	From    MethodSignature `yaml:"from"`
	Inverse string          `yaml:"inverse"`
}

// snapshotV1 is the original schema: one-way declarations only.
type snapshotV1 struct {
	Version      int               `yaml:"version"`
	Setters      []adapterEntry    `yaml:"setters,omitempty"`
	Renamed      []renamedEntry    `yaml:"renamed,omitempty"`
	Conversions  []conversionEntry `yaml:"conversions,omitempty"`
	MultiSetters []multiEntry      `yaml:"multi_setters,omitempty"`
	Untaggable   []untaggableEntry `yaml:"untaggable,omitempty"`
}

func (s *snapshotV1) upgrade() *snapshotV2 {
	return &snapshotV2{
		snapshotV1: snapshotV1{
			Version:      snapshotVersion2,
			Setters:      s.Setters,
			Renamed:      s.Renamed,
			Conversions:  s.Conversions,
			MultiSetters: s.MultiSetters,
			Untaggable:   s.Untaggable,
		},
	}
}

// snapshotV2 added inverse (two-way) adapters and methods.
type snapshotV2 struct {
	snapshotV1      `yaml:",inline"`
	InverseAdapters []inverseAdapterEntry `yaml:"inverse_adapters,omitempty"`
	InverseMethods  []inverseMethodEntry  `yaml:"inverse_methods,omitempty"`
}

func (s *snapshotV2) upgrade() *snapshotV3 {
	v3 := &snapshotV3{snapshotV2: *s}
	v3.Version = SnapshotVersion

	return v3
}

// snapshotV3 is the current schema, adding two-way method pairs.
type snapshotV3 struct {
	snapshotV2 `yaml:",inline"`
	TwoWay     []twoWayEntry `yaml:"two_way,omitempty"`
}

// Snapshot serializes the registry into the current schema.
func (r *Registry) Snapshot() ([]byte, error) {
	s := &snapshotV3{}
	s.Version = SnapshotVersion

	for _, attribute := range sortedKeys(r.setters) {
		adapters := r.setters[attribute]
		for _, key := range sortedAccessorKeys(adapters) {
			s.Setters = append(s.Setters, adapterEntry{
				Attribute: attribute,
				View:      key.ViewType,
				Value:     key.ValueType,
				Method:    adapters[key],
			})
		}
	}

	for _, attribute := range sortedKeys(r.renamed) {
		renamed := r.renamed[attribute]
		for _, view := range sortedKeys(renamed) {
			s.Renamed = append(s.Renamed, renamedEntry{
				Attribute: attribute,
				View:      view,
				Method:    renamed[view],
			})
		}
	}

	for _, from := range sortedKeys(r.conversions) {
		convertTo := r.conversions[from]
		for _, to := range sortedKeys(convertTo) {
			s.Conversions = append(s.Conversions, conversionEntry{
				From:   from,
				To:     to,
				Method: convertTo[to],
			})
		}
	}

	r.MultiSetters(func(key *MultiValueKey, desc MethodDescriptor) {
		s.MultiSetters = append(s.MultiSetters, multiEntry{
			View:       key.ViewType,
			Attributes: key.Attributes,
			Params:     key.ParameterTypes,
			RequireAll: key.RequireAll,
			Method:     desc,
		})
	})

	for _, typeName := range sortedKeys(r.untaggable) {
		s.Untaggable = append(s.Untaggable, untaggableEntry{
			Type:       typeName,
			DeclaredBy: r.untaggable[typeName],
		})
	}

	for _, attribute := range sortedKeys(r.inverseAdapters) {
		adapters := r.inverseAdapters[attribute]
		for _, key := range sortedAccessorKeys(adapters) {
			inv := adapters[key]
			s.InverseAdapters = append(s.InverseAdapters, inverseAdapterEntry{
				Attribute: attribute,
				Event:     inv.Event,
				View:      key.ViewType,
				Value:     key.ValueType,
				Method:    inv.MethodDescriptor,
			})
		}
	}

	for _, attribute := range sortedKeys(r.inverseMethods) {
		methods := r.inverseMethods[attribute]
		for _, view := range sortedKeys(methods) {
			inv := methods[view]
			s.InverseMethods = append(s.InverseMethods, inverseMethodEntry{
				Attribute: attribute,
				Event:     inv.Event,
				View:      view,
				Method:    inv.MethodDescriptor,
			})
		}
	}

	sigs := make([]MethodSignature, 0, len(r.twoWayMethods))
	for sig := range r.twoWayMethods {
		sigs = append(sigs, sig)
	}

	sort.Slice(sigs, func(i, j int) bool { return sigs[i].String() < sigs[j].String() })

	for _, sig := range sigs {
		s.TwoWay = append(s.TwoWay, twoWayEntry{From: sig, Inverse: r.twoWayMethods[sig]})
	}

	return yaml.Marshal(s)
}

// WriteSnapshot writes the registry snapshot to a file.
func (r *Registry) WriteSnapshot(path string) error {
	data, err := r.Snapshot()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot parses snapshot data of any known schema version,
// upgrades it to the current layout, and loads it into the registry.
func (r *Registry) LoadSnapshot(data []byte) error {
	var versionOnly struct {
		Version int `yaml:"version"`
	}

	if err := yaml.Unmarshal(data, &versionOnly); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}

	var v3 *snapshotV3

	switch versionOnly.Version {
	case snapshotVersion1:
		var v1 snapshotV1
		if err := yaml.Unmarshal(data, &v1); err != nil {
			return fmt.Errorf("failed to parse v1 snapshot: %w", err)
		}

		v3 = v1.upgrade().upgrade()
	case snapshotVersion2:
		var v2 snapshotV2
		if err := yaml.Unmarshal(data, &v2); err != nil {
			return fmt.Errorf("failed to parse v2 snapshot: %w", err)
		}

		v3 = v2.upgrade()
	case SnapshotVersion:
		v3 = &snapshotV3{}
		if err := yaml.Unmarshal(data, v3); err != nil {
			return fmt.Errorf("failed to parse v3 snapshot: %w", err)
		}
	default:
		return fmt.Errorf("unsupported snapshot version %d", versionOnly.Version)
	}

	return r.apply(v3)
}

// LoadSnapshotFile reads and loads a snapshot from a file.
func (r *Registry) LoadSnapshotFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	if err := r.LoadSnapshot(data); err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}

	return nil
}

// apply replays an upgraded snapshot through the registration surface
// so the same validation runs as during a scan.
func (r *Registry) apply(s *snapshotV3) error {
	for _, e := range s.Setters {
		if err := r.AddSetter(e.Attribute, e.View, e.Value, e.Method); err != nil {
			return err
		}
	}

	for _, e := range s.Renamed {
		r.AddRenamed(e.Attribute, e.View, e.Method.Method, e.Method.DeclaringType)
	}

	for _, e := range s.Conversions {
		r.AddConversion(e.From, e.To, e.Method)
	}

	for _, e := range s.MultiSetters {
		if err := r.AddMultiSetter(e.View, e.Attributes, e.Params, e.RequireAll, e.Method); err != nil {
			return err
		}
	}

	for _, e := range s.Untaggable {
		r.AddUntaggable([]string{e.Type}, e.DeclaredBy)
	}

	for _, e := range s.InverseAdapters {
		if err := r.AddInverse(e.Attribute, e.Event, e.View, e.Value, e.Method); err != nil {
			return err
		}
	}

	for _, e := range s.InverseMethods {
		r.AddInverseMethod(e.Attribute, e.Event, e.View, e.Method.Method, e.Method.DeclaringType)
	}

	for _, e := range s.TwoWay {
		// Pairs are stored in both directions; reinsert directly to
		// avoid tripping the conflict check on the mirrored entry.
		r.twoWayMethods[e.From] = e.Inverse
	}

	return nil
}
