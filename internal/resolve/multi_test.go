package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binding-resolver/internal/registry"
	"binding-resolver/internal/typemodel"
)

func TestResolveMultiSetters_PartialSubset(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddMultiSetter("SeekBar",
		[]string{"android:min", "android:max"}, []string{"int", "int"},
		false, adapterMethod("setRange")))

	r := New(store, Config{})

	calls := r.ResolveMultiSetters([]string{"android:min"}, class(t, u, "SeekBar"),
		[]*typemodel.Class{class(t, u, "int")})
	require.Len(t, calls, 1)

	call := calls[0]
	assert.Equal(t, "setRange", call.Adapter.Method)
	assert.Equal(t, []string{"min"}, call.Attributes)
	assert.True(t, call.ConsumesAttribute("min"))
	assert.False(t, call.ConsumesAttribute("max"))

	specs := call.ArgSpecs()
	require.Len(t, specs, 2)
	assert.True(t, specs[0].Supplied)
	assert.False(t, specs[1].Supplied)
	assert.Equal(t, "max", specs[1].Attribute)
	assert.Equal(t, "0", specs[1].Default, "absent int arguments default to zero")
}

func TestResolveMultiSetters_RequireAll(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddMultiSetter("SeekBar",
		[]string{"min", "max"}, []string{"int", "int"},
		true, adapterMethod("setRange")))

	r := New(store, Config{})

	calls := r.ResolveMultiSetters([]string{"min"}, class(t, u, "SeekBar"),
		[]*typemodel.Class{class(t, u, "int")})
	assert.Empty(t, calls, "a require-all setter must see every attribute")

	calls = r.ResolveMultiSetters([]string{"max", "min"}, class(t, u, "SeekBar"),
		[]*typemodel.Class{class(t, u, "int"), class(t, u, "int")})
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, []string{"min", "max"}, calls[0].Attributes)
}

func TestResolveMultiSetters_GreedyCover(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddMultiSetter("View",
		[]string{"left", "top", "right"}, []string{"int", "int", "int"},
		false, adapterMethod("setThree")))
	require.NoError(t, store.AddMultiSetter("View",
		[]string{"left", "top"}, []string{"int", "int"},
		false, adapterMethod("setTwo")))

	r := New(store, Config{})

	intType := class(t, u, "int")

	calls := r.ResolveMultiSetters([]string{"left", "top", "right"}, class(t, u, "View"),
		[]*typemodel.Class{intType, intType, intType})
	require.Len(t, calls, 1, "the wider setter claims all three, starving the narrower one")
	assert.Equal(t, "setThree", calls[0].Adapter.Method)
}

func TestResolveMultiSetters_NoDuplicateClaims(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddMultiSetter("View",
		[]string{"alpha", "beta"}, []string{"int", "int"},
		false, adapterMethod("setAlphaBeta")))
	require.NoError(t, store.AddMultiSetter("View",
		[]string{"beta", "gamma"}, []string{"int", "int"},
		false, adapterMethod("setBetaGamma")))

	r := New(store, Config{})

	intType := class(t, u, "int")

	calls := r.ResolveMultiSetters([]string{"alpha", "beta", "gamma"}, class(t, u, "View"),
		[]*typemodel.Class{intType, intType, intType})

	claimed := make(map[string]int)

	for _, call := range calls {
		for _, attr := range call.Attributes {
			claimed[attr]++
		}
	}

	for attr, n := range claimed {
		assert.Equal(t, 1, n, "attribute %q claimed more than once", attr)
	}

	// Overlap on beta starves the second setter entirely.
	require.Len(t, calls, 1)
	assert.Equal(t, "setAlphaBeta", calls[0].Adapter.Method)
}

func TestResolveMultiSetters_MoreSpecificViewFirst(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddMultiSetter("View",
		[]string{"min", "max"}, []string{"int", "int"},
		false, adapterMethod("setViewRange")))
	require.NoError(t, store.AddMultiSetter("SeekBar",
		[]string{"min", "max"}, []string{"int", "int"},
		false, adapterMethod("setSeekBarRange")))

	r := New(store, Config{})

	intType := class(t, u, "int")

	calls := r.ResolveMultiSetters([]string{"min", "max"}, class(t, u, "SeekBar"),
		[]*typemodel.Class{intType, intType})
	require.NotEmpty(t, calls)
	assert.Equal(t, "setSeekBarRange", calls[0].Adapter.Method)
}

func TestResolveMultiSetters_ConverterAndCast(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	store.AddConversion("String", "int", adapterMethod("parseInt"))
	require.NoError(t, store.AddMultiSetter("View",
		[]string{"count", "label"}, []string{"int", "String"},
		true, adapterMethod("setCountLabel")))

	r := New(store, Config{})

	calls := r.ResolveMultiSetters([]string{"count", "label"}, class(t, u, "View"),
		[]*typemodel.Class{class(t, u, "String"), u.Object()})
	require.Len(t, calls, 1)

	specs := calls[0].ArgSpecs()
	require.Len(t, specs, 2)

	require.NotNil(t, specs[0].Converter, "String feeds the int parameter through the conversion")
	assert.Equal(t, "parseInt", specs[0].Converter.Method)
	assert.Empty(t, specs[0].Cast)

	assert.Nil(t, specs[1].Converter)
	assert.Equal(t, "String", specs[1].Cast, "a root-typed value downcasts to the parameter type")
}

func TestResolveMultiSetters_RejectsIncompatibleValue(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddMultiSetter("View",
		[]string{"count"}, []string{"int"},
		true, adapterMethod("setCount")))

	r := New(store, Config{})

	calls := r.ResolveMultiSetters([]string{"count"}, class(t, u, "View"),
		[]*typemodel.Class{class(t, u, "ColorDrawable")})
	assert.Empty(t, calls)

	// Widening is accepted without a converter.
	calls = r.ResolveMultiSetters([]string{"count"}, class(t, u, "View"),
		[]*typemodel.Class{class(t, u, "byte")})
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Converters[0])
}

func TestResolveMultiSetters_Deterministic(t *testing.T) {
	u := fixtureUniverse(t)

	build := func(first, second string) *Resolver {
		store := registry.New(u, nil)
		require.NoError(t, store.AddMultiSetter("View",
			[]string{"min", "max"}, []string{"int", "int"}, false,
			registry.MethodDescriptor{DeclaringType: first, Method: "setRange", Static: true}))
		require.NoError(t, store.AddMultiSetter("SeekBar",
			[]string{"min", "max"}, []string{"int", "int"}, false,
			registry.MethodDescriptor{DeclaringType: second, Method: "setRange", Static: true}))

		return New(store, Config{})
	}

	intType := class(t, u, "int")
	attrs := []string{"min", "max"}
	values := []*typemodel.Class{intType, intType}

	a := build("ViewAdapters", "SeekBarAdapters").
		ResolveMultiSetters(attrs, class(t, u, "SeekBar"), values)
	b := build("ViewAdapters", "SeekBarAdapters").
		ResolveMultiSetters(attrs, class(t, u, "SeekBar"), values)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Adapter, b[0].Adapter)
	assert.Equal(t, "SeekBarAdapters", a[0].Adapter.DeclaringType)
}
