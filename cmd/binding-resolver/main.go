// Package main provides the CLI entrypoint for binding-resolver.
//
// binding-resolver answers build-time binding questions over plain
// declaration records:
//   - Loads a class hierarchy (universe) and adapter declarations from YAML
//   - Merges declaration snapshots from multiple modules, first one wins
//   - Resolves the best setter/getter call for each queried binding site
//   - Validates declarations and reports coded diagnostics
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"binding-resolver/internal/common"
	"binding-resolver/internal/registry"
	"binding-resolver/internal/resolve"
	"binding-resolver/internal/typemodel"
)

const usage = `binding-resolver resolves binding attributes against registered adapters.

Commands:
  resolve   resolve binding-site queries and print call plans as YAML
  merge     merge declaration snapshots into one current-version snapshot
  check     validate declarations and report diagnostics

Common flags:
  -universe FILE   class hierarchy YAML (required)
  -bindings FILE   declaration snapshot, repeatable; merged in order, first seen wins
  -verbose         log registration and candidate traces

resolve flags:
  -queries FILE    binding-site queries YAML (required)
  -debug           dump raw resolved calls to stderr

merge flags:
  -o FILE          output snapshot path (required)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error

	switch os.Args[1] {
	case "resolve":
		err = runResolve(os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "check":
		err = runCheck(os.Args[2:])
	case "help", "-h", "-help", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "binding-resolver:", err)
		os.Exit(1)
	}
}

// fileList collects a repeatable file flag.
type fileList []string

func (f *fileList) String() string { return fmt.Sprint([]string(*f)) }

func (f *fileList) Set(value string) error {
	*f = append(*f, value)

	return nil
}

type commonFlags struct {
	universe string
	bindings fileList
	verbose  bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.universe, "universe", "", "class hierarchy YAML")
	fs.Var(&c.bindings, "bindings", "declaration snapshot, repeatable")
	fs.BoolVar(&c.verbose, "verbose", false, "log registration and candidate traces")
}

// load builds the merged registry from the universe and every bindings
// file, in order. The first file's entries win on collision.
func (c *commonFlags) load() (*registry.Registry, *zap.Logger, error) {
	if c.universe == "" {
		return nil, nil, fmt.Errorf("-universe is required")
	}

	if common.IsEmpty(c.bindings) {
		return nil, nil, fmt.Errorf("at least one -bindings file is required")
	}

	logger := zap.NewNop()

	if c.verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}

		logger = dev
	}

	universe, err := typemodel.LoadUniverseFile(c.universe)
	if err != nil {
		return nil, nil, err
	}

	store := registry.New(universe, logger)

	for i, path := range c.bindings {
		if i == 0 {
			if err := store.LoadSnapshotFile(path); err != nil {
				return nil, nil, err
			}

			continue
		}

		next := registry.New(universe, logger)
		if err := next.LoadSnapshotFile(path); err != nil {
			return nil, nil, err
		}

		store.Merge(next)
	}

	return store, logger, nil
}

// Query kinds accepted in a queries file.
const (
	queryKindSetter = "setter"
	queryKindGetter = "getter"
	queryKindMulti  = "multi"
)

type queryFile struct {
	Queries []query `yaml:"queries"`
}

type query struct {
	Kind       string            `yaml:"kind"`
	Attribute  string            `yaml:"attribute,omitempty"`
	Attributes []string          `yaml:"attributes,omitempty"`
	View       string            `yaml:"view"`
	Value      string            `yaml:"value,omitempty"`
	Values     []string          `yaml:"values,omitempty"`
	Expected   string            `yaml:"expected,omitempty"`
	Imports    map[string]string `yaml:"imports,omitempty"`
}

type setterResult struct {
	Kind             string `yaml:"kind"`
	Type             string `yaml:"type"`
	Method           string `yaml:"method"`
	Parameter        string `yaml:"parameter,omitempty"`
	Cast             string `yaml:"cast,omitempty"`
	Converter        string `yaml:"converter,omitempty"`
	Component        string `yaml:"component,omitempty"`
	RequiresOldValue bool   `yaml:"requires_old_value,omitempty"`
	MinAPI           int    `yaml:"min_api,omitempty"`
}

type argResult struct {
	Attribute string `yaml:"attribute"`
	Parameter string `yaml:"parameter"`
	Supplied  bool   `yaml:"supplied"`
	Default   string `yaml:"default,omitempty"`
	Converter string `yaml:"converter,omitempty"`
	Cast      string `yaml:"cast,omitempty"`
}

type multiResult struct {
	Type             string      `yaml:"type"`
	Method           string      `yaml:"method"`
	Attributes       []string    `yaml:"attributes"`
	Args             []argResult `yaml:"args"`
	Component        string      `yaml:"component,omitempty"`
	RequiresOldValue bool        `yaml:"requires_old_value,omitempty"`
}

type getterResult struct {
	Kind           string        `yaml:"kind"`
	Type           string        `yaml:"type"`
	Method         string        `yaml:"method"`
	GetterType     string        `yaml:"getter_type"`
	EventAttribute string        `yaml:"event_attribute"`
	Event          *setterResult `yaml:"event,omitempty"`
	MinAPI         int           `yaml:"min_api,omitempty"`
}

type resolution struct {
	Query  query          `yaml:"query"`
	Status string         `yaml:"status"`
	Note   string         `yaml:"note,omitempty"`
	Setter *setterResult  `yaml:"setter,omitempty"`
	Getter *getterResult  `yaml:"getter,omitempty"`
	Multi  []*multiResult `yaml:"multi,omitempty"`
}

func runResolve(args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)

	var c commonFlags

	c.register(fs)
	queries := fs.String("queries", "", "binding-site queries YAML")
	debug := fs.Bool("debug", false, "dump raw resolved calls to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *queries == "" {
		return fmt.Errorf("-queries is required")
	}

	store, logger, err := c.load()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*queries)
	if err != nil {
		return err
	}

	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return fmt.Errorf("failed to parse queries %s: %w", *queries, err)
	}

	resolver := resolve.New(store, resolve.Config{Logger: logger})
	universe := store.Universe()
	results := make([]resolution, 0, len(qf.Queries))

	for _, q := range qf.Queries {
		res := resolution{Query: q, Status: "unresolved"}

		switch q.Kind {
		case queryKindSetter:
			resolveSetterQuery(resolver, store, universe, q, &res)
		case queryKindMulti:
			resolveMultiQuery(resolver, universe, q, &res)
		case queryKindGetter:
			resolveGetterQuery(resolver, universe, q, &res)
		default:
			res.Note = fmt.Sprintf("unknown query kind %q", q.Kind)
		}

		results = append(results, res)
	}

	if *debug {
		spew.Fdump(os.Stderr, results)
	}

	out, err := yaml.Marshal(struct {
		Results []resolution `yaml:"results"`
	}{results})
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(out)

	return err
}

func resolveSetterQuery(resolver *resolve.Resolver, store *registry.Registry,
	universe *typemodel.Universe, q query, res *resolution) {
	viewType, err := universe.FindClass(q.View, q.Imports)
	if err != nil {
		res.Note = err.Error()
		return
	}

	valueType, err := universe.FindClass(q.Value, q.Imports)
	if err != nil {
		res.Note = err.Error()
		return
	}

	if store.IsTwoWayEventAttribute(q.Attribute) {
		res.Note = "attribute is a two-way change event; one-way binding is suppressed"
		return
	}

	call := resolver.ResolveSetter(q.Attribute, viewType, valueType, q.Imports)
	if call == nil {
		return
	}

	res.Status = "resolved"
	res.Setter = renderSetter(call)
}

func resolveMultiQuery(resolver *resolve.Resolver, universe *typemodel.Universe,
	q query, res *resolution) {
	viewType, err := universe.FindClass(q.View, q.Imports)
	if err != nil {
		res.Note = err.Error()
		return
	}

	values := make([]*typemodel.Class, len(q.Values))

	for i, name := range q.Values {
		values[i], err = universe.FindClass(name, q.Imports)
		if err != nil {
			res.Note = err.Error()
			return
		}
	}

	calls := resolver.ResolveMultiSetters(q.Attributes, viewType, values)
	if common.IsEmpty(calls) {
		return
	}

	res.Status = "resolved"

	for _, call := range calls {
		mr := &multiResult{
			Type:             call.Adapter.DeclaringType,
			Method:           call.Adapter.Method,
			Attributes:       call.Attributes,
			Component:        call.InstanceAdapterType(),
			RequiresOldValue: call.RequiresOldValue(),
		}

		for _, spec := range call.ArgSpecs() {
			ar := argResult{
				Attribute: spec.Attribute,
				Parameter: spec.ParameterType,
				Supplied:  spec.Supplied,
				Default:   spec.Default,
				Cast:      spec.Cast,
			}
			if spec.Converter != nil {
				ar.Converter = spec.Converter.String()
			}

			mr.Args = append(mr.Args, ar)
		}

		res.Multi = append(res.Multi, mr)
	}
}

func resolveGetterQuery(resolver *resolve.Resolver, universe *typemodel.Universe,
	q query, res *resolution) {
	viewType, err := universe.FindClass(q.View, q.Imports)
	if err != nil {
		res.Note = err.Error()
		return
	}

	var expected *typemodel.Class

	if q.Expected != "" {
		expected, err = universe.FindClass(q.Expected, q.Imports)
		if err != nil {
			res.Note = err.Error()
			return
		}
	}

	call := resolver.ResolveGetter(q.Attribute, viewType, expected, q.Imports)
	if call == nil {
		return
	}

	res.Status = "resolved"
	res.Getter = &getterResult{
		Kind:           call.Kind.String(),
		Type:           call.Target.DeclaringType,
		Method:         call.Target.Method,
		GetterType:     call.GetterType,
		EventAttribute: call.EventAttribute,
		MinAPI:         call.MinAPI(),
	}

	if event, ok := call.Event.(*resolve.SetterCall); ok {
		res.Getter.Event = renderSetter(event)
	}
}

func renderSetter(call *resolve.SetterCall) *setterResult {
	r := &setterResult{
		Kind:             call.Kind.String(),
		Type:             call.Target.DeclaringType,
		Method:           call.Target.Method,
		Component:        call.InstanceAdapterType(),
		RequiresOldValue: call.RequiresOldValue(),
		MinAPI:           call.MinAPI(),
	}

	if call.ParameterType != nil {
		r.Parameter = call.ParameterType.Name
	}

	if call.Cast != nil {
		r.Cast = call.Cast.Name
	}

	if call.Converter != nil {
		r.Converter = call.Converter.String()
	}

	return r
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)

	var c commonFlags

	c.register(fs)
	out := fs.String("o", "", "output snapshot path")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		return fmt.Errorf("-o is required")
	}

	store, _, err := c.load()
	if err != nil {
		return err
	}

	return store.WriteSnapshot(*out)
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)

	var c commonFlags

	c.register(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, _, err := c.load()
	if err != nil {
		return err
	}

	d := store.Validate()

	for _, w := range d.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w.String())
	}

	for _, e := range d.Errors {
		fmt.Fprintln(os.Stderr, "error:", e.String())
	}

	if d.HasErrors() {
		return fmt.Errorf("%d error(s) found", len(d.Errors))
	}

	fmt.Printf("ok: %d file(s) checked\n", len(c.bindings))

	return nil
}
