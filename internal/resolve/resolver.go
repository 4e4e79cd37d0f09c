// Package resolve selects the best setter, getter, or converter for a
// binding site from a finalized registry. Resolution is a pure,
// synchronous query: it performs no I/O, never mutates the registry,
// and is safe to run concurrently for independent binding sites.
package resolve

import (
	"sort"

	"go.uber.org/zap"

	"binding-resolver/internal/common"
	"binding-resolver/internal/oracle"
	"binding-resolver/internal/registry"
	"binding-resolver/internal/typemodel"
)

// DefaultListenerType is the change-listener type wired as the event
// setter's value for two-way binding unless configured otherwise.
const DefaultListenerType = "InverseBindingListener"

// Config holds resolver construction options.
type Config struct {
	// ListenerType overrides the change-listener type name.
	ListenerType string
	// Logger receives per-candidate skip traces. Nil disables logging.
	Logger *zap.Logger
}

// Resolver answers binding-site queries over one registry. Construct
// one per compilation unit after the registry is finalized.
type Resolver struct {
	universe     *typemodel.Universe
	store        *registry.Registry
	oracle       *oracle.Oracle
	log          *zap.Logger
	listenerType string
}

// New creates a resolver over a finalized registry.
func New(store *registry.Registry, cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	listenerType := cfg.ListenerType
	if listenerType == "" {
		listenerType = DefaultListenerType
	}

	universe := store.Universe()

	return &Resolver{
		universe:     universe,
		store:        store,
		oracle:       oracle.New(universe, store),
		log:          logger,
		listenerType: listenerType,
	}
}

// ResolveSetter returns the best setter call for applying a value of
// valueType to an attribute on viewType, or nil when nothing matches.
// Imports map short type aliases used at the binding site.
func (r *Resolver) ResolveSetter(attribute string, viewType, valueType *typemodel.Class,
	imports map[string]string) *SetterCall {
	if viewType == nil {
		return nil
	}

	viewType = viewType.Erasure()
	attribute = registry.StripNamespace(attribute)

	var (
		bestViewType  *typemodel.Class
		bestValueType *typemodel.Class
		setterCall    *SetterCall
	)

	if method, param, ok := r.bestDirectSetter(viewType, valueType, attribute, imports); ok {
		// Adapters compete against the class declaring the method,
		// not the queried view.
		bestViewType = method.Receiver
		bestValueType = param
		setterCall = &SetterCall{
			Kind: CallDirectMethod,
			Target: registry.MethodDescriptor{
				DeclaringType: viewType.Name,
				Method:        method.Name,
			},
			ParameterType: param,
			minAPI:        method.MinAPI,
		}
	}

	adapters := r.store.SettersFor(attribute)
	for _, key := range sortedAccessorKeys(adapters) {
		adapterViewType, err := r.universe.FindClass(key.ViewType, imports)
		if err != nil {
			r.log.Debug("unknown adapter view type", zap.String("type", key.ViewType), zap.Error(err))
			continue
		}

		adapterViewType = adapterViewType.Erasure()
		if !r.universe.AssignableFrom(adapterViewType, viewType) {
			continue
		}

		adapterValueType, err := r.universe.FindClass(key.ValueType, imports)
		if err != nil {
			r.log.Debug("unknown adapter value type", zap.String("type", key.ValueType), zap.Error(err))
			continue
		}

		adapterValueType = r.universe.MaybeErase(adapterValueType)

		if r.betterParameter(valueType, adapterViewType, adapterValueType,
			bestViewType, bestValueType, imports) {
			bestViewType = adapterViewType
			bestValueType = adapterValueType
			adapter := adapters[key]
			setterCall = &SetterCall{
				Kind:          CallAdapter,
				Target:        adapter,
				ParameterType: adapterValueType,
				minAPI:        1,
			}
		}
	}

	if setterCall != nil {
		if valueType.IsObject() && bestValueType.IsNullable() {
			setterCall.Cast = bestValueType
		}

		setterCall.Converter = r.store.ConversionFor(valueType, bestValueType, imports)
	}

	return setterCall
}

// bestDirectSetter searches the view type and its ancestors for a
// void single-parameter method matching the attribute: a declared
// rename first, then the conventional set-prefixed name, then the raw
// attribute text.
func (r *Resolver) bestDirectSetter(viewType, argumentType *typemodel.Class,
	attribute string, imports map[string]string) (typemodel.Method, *typemodel.Class, bool) {
	if viewType.IsGeneric() {
		argumentType = r.universe.EraseIfDependent(argumentType, viewType.TypeParams)
		viewType = viewType.Erasure()
	}

	var candidates []string

	renamed := r.store.RenamedFor(attribute)
	for _, className := range sortedStringKeys(renamed) {
		renamedViewType, err := r.universe.FindClass(className, imports)
		if err != nil {
			r.log.Debug("unknown renamed-setter class", zap.String("type", className), zap.Error(err))
			continue
		}

		if r.universe.AssignableFrom(renamedViewType.Erasure(), viewType) {
			candidates = append(candidates, renamed[className].Method)
			break
		}
	}

	candidates = append(candidates, registry.SetterName(attribute), registry.StripNamespace(attribute))

	var (
		bestMethod    typemodel.Method
		bestParameter *typemodel.Class
		found         bool
	)

	for _, name := range candidates {
		for _, method := range r.universe.MethodsOf(viewType, name, 1) {
			param, err := r.universe.FindClass(method.Params[0], imports)
			if err != nil {
				r.log.Debug("unknown setter parameter type",
					zap.String("method", name), zap.String("type", method.Params[0]), zap.Error(err))

				continue
			}

			var previousViewType *typemodel.Class
			if bestParameter != nil {
				previousViewType = viewType
			}

			if method.IsVoid() && r.betterParameter(argumentType, viewType, param,
				previousViewType, bestParameter, imports) {
				bestParameter = param
				bestMethod = method
				found = true
			}
		}
	}

	return bestMethod, bestParameter, found
}

// ResolveGetter returns the best getter call reading an attribute's
// view-side value for two-way binding, paired with the event setter
// that signals change, or nil. A candidate without a resolvable event
// setter is rejected and reported.
func (r *Resolver) ResolveGetter(attribute string, viewType, expected *typemodel.Class,
	imports map[string]string) *GetterCall {
	if viewType == nil {
		return nil
	}

	attribute = registry.StripNamespace(attribute)
	viewType = viewType.Erasure()

	best := r.bestDirectGetter(viewType, expected, attribute, imports)

	adapters := r.store.InverseAdaptersFor(attribute)
	for _, key := range sortedAccessorKeys(adapters) {
		adapterViewType, err := r.universe.FindClass(key.ViewType, imports)
		if err != nil {
			r.log.Debug("unknown inverse adapter view type", zap.String("type", key.ViewType), zap.Error(err))
			continue
		}

		adapterViewType = adapterViewType.Erasure()
		if !r.universe.AssignableFrom(adapterViewType, viewType) {
			continue
		}

		adapterValueType, err := r.universe.FindClass(key.ValueType, imports)
		if err != nil {
			r.log.Debug("unknown inverse adapter value type", zap.String("type", key.ValueType), zap.Error(err))
			continue
		}

		adapterValueType = r.universe.MaybeErase(adapterValueType)

		if expected == nil {
			if best.call != nil {
				continue
			}
		} else if !r.betterReturn(expected, adapterViewType, adapterValueType,
			best.viewType, best.returnType, imports) {
			continue
		}

		best.viewType = adapterViewType
		best.returnType = adapterValueType

		inverse := adapters[key]

		eventCall := r.resolveEventSetter(inverse.Event, viewType, imports)
		if eventCall == nil {
			continue
		}

		best.call = &GetterCall{
			Kind:           CallAdapter,
			Target:         inverse,
			GetterType:     key.ValueType,
			Event:          eventCall,
			EventAttribute: inverse.Event,
			minAPI:         1,
		}
	}

	return best.call
}

// inverseCandidate tracks the best getter seen so far during
// ResolveGetter.
type inverseCandidate struct {
	call       *GetterCall
	returnType *typemodel.Class
	viewType   *typemodel.Class
}

// bestDirectGetter searches registered renamed getters on the view
// type's hierarchy for the best instance getter.
func (r *Resolver) bestDirectGetter(viewType, expected *typemodel.Class,
	attribute string, imports map[string]string) inverseCandidate {
	if viewType.IsGeneric() {
		if expected != nil {
			expected = r.universe.EraseIfDependent(expected, viewType.TypeParams)
		}

		viewType = viewType.Erasure()
	}

	var (
		bestReturnType  *typemodel.Class
		bestDescription *registry.InverseDescriptor
		bestViewType    *typemodel.Class
		bestMethod      typemodel.Method
	)

	inverseMethods := r.store.InverseMethodsFor(attribute)
	for _, className := range sortedStringKeys(inverseMethods) {
		methodViewType, err := r.universe.FindClass(className, imports)
		if err != nil {
			r.log.Debug("unknown inverse method class", zap.String("type", className), zap.Error(err))
			continue
		}

		if !r.universe.AssignableFrom(methodViewType.Erasure(), viewType) {
			continue
		}

		inverse := inverseMethods[className]

		name := inverse.Method
		if name == "" {
			name = registry.StripNamespace(attribute)
		}

		method, ok := r.universe.FindInstanceGetter(methodViewType, name)
		if !ok {
			r.log.Debug("no instance getter",
				zap.String("view", methodViewType.Name), zap.String("name", name))

			continue
		}

		returnType, err := r.universe.FindClass(method.Return, imports)
		if err != nil {
			r.log.Debug("unknown getter return type", zap.String("type", method.Return), zap.Error(err))
			continue
		}

		if expected == nil {
			if bestReturnType != nil {
				continue
			}
		} else if !r.betterReturn(expected, methodViewType, returnType, bestViewType, bestReturnType, imports) {
			continue
		}

		bestDescription = &inverse
		bestReturnType = returnType
		bestViewType = methodViewType
		bestMethod = method
	}

	result := inverseCandidate{returnType: bestReturnType, viewType: bestViewType}

	if bestDescription != nil {
		eventCall := r.resolveEventSetter(bestDescription.Event, viewType, imports)
		if eventCall == nil {
			result.viewType = nil
			result.returnType = nil

			return result
		}

		target := *bestDescription
		target.DeclaringType = bestViewType.Name
		target.Method = bestMethod.Name
		target.Static = false

		result.call = &GetterCall{
			Kind:           CallDirectMethod,
			Target:         target,
			GetterType:     bestMethod.Return,
			Event:          eventCall,
			EventAttribute: bestDescription.Event,
			minAPI:         bestMethod.MinAPI,
		}
	}

	return result
}

// resolveEventSetter finds the setter wiring the change listener for
// an event attribute, trying single-attribute resolution first and
// multi-attribute resolution second. A miss is reported and returns
// nil.
func (r *Resolver) resolveEventSetter(event string, viewType *typemodel.Class,
	imports map[string]string) BindingSetterCall {
	listenerType, err := r.universe.FindClass(r.listenerType, imports)
	if err != nil {
		r.log.Error("change-listener type is not defined in the universe",
			zap.String("type", r.listenerType), zap.Error(err))

		return nil
	}

	if call := r.ResolveSetter(event, viewType, listenerType, imports); call != nil {
		return call
	}

	setters := r.ResolveMultiSetters([]string{event}, viewType, []*typemodel.Class{listenerType})
	if !common.IsSingle(setters) {
		r.log.Error("could not find event on view type",
			zap.String("event", event), zap.String("view", viewType.Name))

		return nil
	}

	call, _ := common.First(setters)

	return call
}

// sortedAccessorKeys returns a bucket's keys in deterministic order.
func sortedAccessorKeys[V any](m map[registry.AccessorKey]V) []registry.AccessorKey {
	keys := make([]registry.AccessorKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ViewType != keys[j].ViewType {
			return keys[i].ViewType < keys[j].ViewType
		}

		return keys[i].ValueType < keys[j].ValueType
	})

	return keys
}

// sortedStringKeys returns a bucket's keys in sorted order.
func sortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
