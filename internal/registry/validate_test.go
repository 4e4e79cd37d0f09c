package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binding-resolver/internal/diagnostic"
	"binding-resolver/internal/typemodel"
)

func TestValidate_Clean(t *testing.T) {
	u := testUniverse(t)
	u.MustDefine(typemodel.ClassDecl{Name: "InverseBindingListener", Interface: true})
	u.MustDefine(typemodel.ClassDecl{
		Name:  "EditText",
		Super: "TextView",
		Methods: []typemodel.Method{
			{Name: "applyHint", Params: []string{"CharSequence"}},
		},
	})

	r := New(u, nil)
	require.NoError(t, r.AddSetter("text", "TextView", "CharSequence", adapterMethod("setText")))
	require.NoError(t, r.AddSetter("textAttrChanged", "TextView", "InverseBindingListener", adapterMethod("setWatcher")))
	require.NoError(t, r.AddInverse("text", "textAttrChanged", "TextView", "String", adapterMethod("getText")))
	r.AddRenamed("hint", "EditText", "applyHint", "EditTextAdapters")
	r.AddConversion("int", "String", adapterMethod("toString"))

	d := r.Validate()
	assert.True(t, d.IsValid())
	assert.Empty(t, d.Warnings)
}

func TestValidate_UnknownTypesWarn(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.AddSetter("adapter", "RecyclerView", "Adapter", adapterMethod("setAdapter")))

	d := r.Validate()
	assert.True(t, d.IsValid(), "unknown types are warnings, not errors")
	assert.Len(t, d.Warnings, 2)
	assert.Equal(t, CodeUnknownType, d.Warnings[0].Code)
}

func TestValidate_RenamedMethodMissing(t *testing.T) {
	r := testRegistry(t)
	r.AddRenamed("tint", "TextView", "applyTint", "Adapters")

	d := r.Validate()
	require.True(t, d.HasErrors())
	assert.Equal(t, CodeMissingMethod, d.Errors[0].Code)
	assert.Error(t, d.Error())
}

func TestValidate_InverseWithoutEventSetter(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.AddInverse("text", "textAttrChanged", "TextView", "String", adapterMethod("getText")))

	d := r.Validate()
	require.True(t, d.HasErrors())
	assert.Equal(t, CodeMissingEvent, d.Errors[0].Code)
	assert.Equal(t, "text", d.Errors[0].Attribute)
}

func TestValidate_EventViaConventionalSetter(t *testing.T) {
	u := testUniverse(t)
	u.MustDefine(typemodel.ClassDecl{
		Name:  "RatingBar",
		Super: "View",
		Methods: []typemodel.Method{
			{Name: "setRatingWatcher", Params: []string{"Object"}},
		},
	})

	r := New(u, nil)
	require.NoError(t, r.AddInverse("rating", "ratingWatcher", "RatingBar", "float", adapterMethod("getRating")))

	d := r.Validate()
	assert.True(t, d.IsValid(), "a conventional setter on the view satisfies the event")
}

func TestDiagnostics_MergeAndString(t *testing.T) {
	var a, b diagnostic.Diagnostics

	a.AddWarning(CodeUnknownType, "unknown type", "text", "Adapters.setText()")
	b.AddError(CodeMissingEvent, "no setter", "", "")

	a.Merge(b)
	assert.Len(t, a.Warnings, 1)
	require.True(t, a.HasErrors())

	s := a.Warnings[0].String()
	assert.Contains(t, s, "BR001")
	assert.Contains(t, s, "Adapters.setText()")
	assert.Contains(t, s, "text")
}
