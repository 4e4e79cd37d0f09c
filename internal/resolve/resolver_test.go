package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binding-resolver/internal/registry"
	"binding-resolver/internal/typemodel"
)

func fixtureUniverse(t *testing.T) *typemodel.Universe {
	t.Helper()

	u := typemodel.NewUniverse()
	u.MustDefine(typemodel.ClassDecl{Name: "CharSequence", Interface: true})
	u.MustDefine(typemodel.ClassDecl{Name: "Spannable", Interface: true, Interfaces: []string{"CharSequence"}})
	u.MustDefine(typemodel.ClassDecl{Name: "SpannableString", Interfaces: []string{"Spannable"}})
	u.MustDefine(typemodel.ClassDecl{Name: "String", Interfaces: []string{"CharSequence"}})
	u.MustDefine(typemodel.ClassDecl{Name: "Drawable"})
	u.MustDefine(typemodel.ClassDecl{Name: "ColorDrawable", Super: "Drawable"})
	u.MustDefine(typemodel.ClassDecl{Name: "InverseBindingListener", Interface: true})
	u.MustDefine(typemodel.ClassDecl{
		Name: "View",
		Methods: []typemodel.Method{
			{Name: "setVisibility", Params: []string{"int"}},
			{Name: "setBackground", Params: []string{"Drawable"}},
			{Name: "setLabel", Params: []string{"Spannable"}},
		},
	})
	u.MustDefine(typemodel.ClassDecl{
		Name:  "TextView",
		Super: "View",
		Methods: []typemodel.Method{
			{Name: "setText", Params: []string{"CharSequence"}},
			{Name: "getText", Return: "CharSequence"},
			{Name: "applyFancyText", Params: []string{"String"}},
		},
	})
	u.MustDefine(typemodel.ClassDecl{Name: "ImageView", Super: "View"})
	u.MustDefine(typemodel.ClassDecl{Name: "SeekBar", Super: "View"})
	u.MustDefine(typemodel.ClassDecl{
		Name:  "CounterView",
		Super: "View",
		Methods: []typemodel.Method{
			{Name: "setCount", Params: []string{"int"}},
		},
	})
	u.MustDefine(typemodel.ClassDecl{
		Name:  "CompoundButton",
		Super: "View",
		Methods: []typemodel.Method{
			{Name: "setChecked", Params: []string{"boolean"}},
			{Name: "isChecked", Return: "boolean"},
		},
	})

	return u
}

func class(t *testing.T, u *typemodel.Universe, name string) *typemodel.Class {
	t.Helper()

	c, err := u.FindClass(name, nil)
	require.NoError(t, err)

	return c
}

func adapterMethod(name string) registry.MethodDescriptor {
	return registry.MethodDescriptor{DeclaringType: "BindingAdapters", Method: name, Static: true}
}

func TestResolveSetter_AdapterBeatsDirectMethod(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("text", "TextView", "Spannable", adapterMethod("setSpannableText")))

	r := New(store, Config{})

	call := r.ResolveSetter("android:text", class(t, u, "TextView"), class(t, u, "Spannable"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallAdapter, call.Kind)
	assert.Equal(t, "setSpannableText", call.Target.Method)
	assert.Equal(t, "Spannable", call.ParameterType.Name)
	assert.Nil(t, call.Converter)
	assert.Nil(t, call.Cast)
}

func TestResolveSetter_DirectMethodFallback(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	r := New(store, Config{})

	call := r.ResolveSetter("text", class(t, u, "TextView"), class(t, u, "String"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallDirectMethod, call.Kind)
	assert.Equal(t, "TextView", call.Target.DeclaringType)
	assert.Equal(t, "setText", call.Target.Method)
	assert.Equal(t, "CharSequence", call.ParameterType.Name)
}

func TestResolveSetter_MoreSpecificViewWins(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("tint", "View", "int", adapterMethod("setViewTint")))
	require.NoError(t, store.AddSetter("tint", "ImageView", "int", adapterMethod("setImageTint")))

	r := New(store, Config{})

	call := r.ResolveSetter("tint", class(t, u, "ImageView"), class(t, u, "int"), nil)
	require.NotNil(t, call)
	assert.Equal(t, "setImageTint", call.Target.Method)

	call = r.ResolveSetter("tint", class(t, u, "SeekBar"), class(t, u, "int"), nil)
	require.NotNil(t, call)
	assert.Equal(t, "setViewTint", call.Target.Method)
}

func TestResolveSetter_AdapterOnSubviewBeatsInheritedSetter(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("label", "TextView", "CharSequence", adapterMethod("setLabelText")))
	require.NoError(t, store.AddSetter("label", "View", "CharSequence", adapterMethod("setAnyLabel")))

	r := New(store, Config{})

	// setLabel(Spannable) is declared on View, so the TextView adapter
	// is the more specific view even though its parameter is wider.
	call := r.ResolveSetter("label", class(t, u, "TextView"), class(t, u, "SpannableString"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallAdapter, call.Kind)
	assert.Equal(t, "setLabelText", call.Target.Method)

	// On the declaring view itself the narrower parameter still wins.
	call = r.ResolveSetter("label", class(t, u, "View"), class(t, u, "SpannableString"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallDirectMethod, call.Kind)
	assert.Equal(t, "setLabel", call.Target.Method)
}

func TestResolveSetter_MoreSpecificParameterWins(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("markup", "TextView", "CharSequence", adapterMethod("setMarkupChars")))
	require.NoError(t, store.AddSetter("markup", "TextView", "Spannable", adapterMethod("setMarkupSpannable")))

	r := New(store, Config{})

	// Both candidates sit at the assignable tier for a
	// SpannableString argument; the narrower parameter wins.
	call := r.ResolveSetter("markup", class(t, u, "TextView"), class(t, u, "SpannableString"), nil)
	require.NotNil(t, call)
	assert.Equal(t, "setMarkupSpannable", call.Target.Method)
}

func TestResolveSetter_AttachesConversion(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	store.AddConversion("String", "int", adapterMethod("parseInt"))

	r := New(store, Config{})

	call := r.ResolveSetter("count", class(t, u, "CounterView"), class(t, u, "String"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallDirectMethod, call.Kind)
	assert.Equal(t, "setCount", call.Target.Method)
	require.NotNil(t, call.Converter)
	assert.Equal(t, "parseInt", call.Converter.Method)
}

func TestResolveSetter_CastsObjectValues(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("text", "TextView", "String", adapterMethod("setStringText")))

	r := New(store, Config{})

	call := r.ResolveSetter("text", class(t, u, "TextView"), u.Object(), nil)
	require.NotNil(t, call)
	assert.Equal(t, "setStringText", call.Target.Method)
	require.NotNil(t, call.Cast)
	assert.Equal(t, "String", call.Cast.Name)
}

func TestResolveSetter_RenamedSetter(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	store.AddRenamed("fancyText", "TextView", "applyFancyText", "TextViewAdapters")

	r := New(store, Config{})

	call := r.ResolveSetter("app:fancyText", class(t, u, "TextView"), class(t, u, "String"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallDirectMethod, call.Kind)
	assert.Equal(t, "applyFancyText", call.Target.Method)
}

func TestResolveSetter_NoMatch(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	r := New(store, Config{})

	assert.Nil(t, r.ResolveSetter("text", class(t, u, "TextView"), class(t, u, "ColorDrawable"), nil))
	assert.Nil(t, r.ResolveSetter("text", nil, class(t, u, "String"), nil))
	assert.Nil(t, r.ResolveSetter("bogus", class(t, u, "SeekBar"), class(t, u, "String"), nil))
}

func TestResolveSetter_Deterministic(t *testing.T) {
	u := fixtureUniverse(t)

	build := func(order []string) *Resolver {
		store := registry.New(u, nil)
		for _, view := range order {
			require.NoError(t, store.AddSetter("tint", view, "int",
				registry.MethodDescriptor{DeclaringType: view + "Adapters", Method: "setTint", Static: true}))
		}

		return New(store, Config{})
	}

	forward := build([]string{"View", "ImageView", "TextView"})
	backward := build([]string{"TextView", "ImageView", "View"})

	for i := 0; i < 16; i++ {
		a := forward.ResolveSetter("tint", class(t, u, "ImageView"), class(t, u, "int"), nil)
		b := backward.ResolveSetter("tint", class(t, u, "ImageView"), class(t, u, "int"), nil)
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.Equal(t, a.Target, b.Target)
		assert.Equal(t, "ImageViewAdapters", a.Target.DeclaringType)
	}
}

func TestResolveSetter_ImportAliases(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("text", "TV", "String", adapterMethod("setAliasedText")))

	r := New(store, Config{})
	imports := map[string]string{"TV": "TextView"}

	call := r.ResolveSetter("text", class(t, u, "TextView"), class(t, u, "String"), imports)
	require.NotNil(t, call)
	assert.Equal(t, "setAliasedText", call.Target.Method)

	// Without the alias the adapter's view type is unknown and the
	// direct method takes over.
	call = r.ResolveSetter("text", class(t, u, "TextView"), class(t, u, "String"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallDirectMethod, call.Kind)
}

func TestResolveGetter_InverseAdapter(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("textAttrChanged", "TextView", "InverseBindingListener",
		adapterMethod("setTextWatcher")))
	require.NoError(t, store.AddInverse("text", "textAttrChanged", "TextView", "String",
		adapterMethod("getTextString")))

	r := New(store, Config{})

	call := r.ResolveGetter("android:text", class(t, u, "TextView"), class(t, u, "String"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallAdapter, call.Kind)
	assert.Equal(t, "getTextString", call.Target.Method)
	assert.Equal(t, "String", call.GetterType)
	assert.Equal(t, "textAttrChanged", call.EventAttribute)
	require.NotNil(t, call.Event)
	assert.Equal(t, 1, call.MinAPI())
}

func TestResolveGetter_MoreGenericReturnWins(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("textAttrChanged", "TextView", "InverseBindingListener",
		adapterMethod("setTextWatcher")))
	require.NoError(t, store.AddInverse("text", "textAttrChanged", "TextView", "String",
		adapterMethod("getTextString")))
	require.NoError(t, store.AddInverse("text", "textAttrChanged", "TextView", "CharSequence",
		adapterMethod("getTextChars")))

	r := New(store, Config{})

	// Both candidates are assignable to the root; ties at the
	// assignable tier prefer the broader getter.
	call := r.ResolveGetter("text", class(t, u, "TextView"), u.Object(), nil)
	require.NotNil(t, call)
	assert.Equal(t, "getTextChars", call.Target.Method)
}

func TestResolveGetter_DirectMethod(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	require.NoError(t, store.AddSetter("checkedAttrChanged", "CompoundButton", "InverseBindingListener",
		adapterMethod("setCheckedWatcher")))
	store.AddInverseMethod("checked", "checkedAttrChanged", "CompoundButton", "", "CompoundButtonAdapters")

	r := New(store, Config{})

	call := r.ResolveGetter("checked", class(t, u, "CompoundButton"), class(t, u, "boolean"), nil)
	require.NotNil(t, call)
	assert.Equal(t, CallDirectMethod, call.Kind)
	assert.Equal(t, "isChecked", call.Target.Method)
	assert.Equal(t, "CompoundButton", call.Target.DeclaringType)
	assert.Equal(t, "boolean", call.GetterType)
}

func TestResolveGetter_RequiresEventSetter(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	// No setter registered for the event attribute.
	require.NoError(t, store.AddInverse("text", "textAttrChanged", "TextView", "String",
		adapterMethod("getTextString")))

	r := New(store, Config{})

	assert.Nil(t, r.ResolveGetter("text", class(t, u, "TextView"), class(t, u, "String"), nil))
}

func TestResolveGetter_NoMatch(t *testing.T) {
	u := fixtureUniverse(t)
	store := registry.New(u, nil)
	r := New(store, Config{})

	assert.Nil(t, r.ResolveGetter("text", class(t, u, "SeekBar"), class(t, u, "String"), nil))
	assert.Nil(t, r.ResolveGetter("text", nil, class(t, u, "String"), nil))
}
