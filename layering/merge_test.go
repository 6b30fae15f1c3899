package layering

import (
	"reflect"
	"testing"
)

type layeringChannel struct {
	Enabled *bool
	Labels  []string
}

type layeringSettings struct {
	Name     string
	Mode     int
	Enabled  *bool
	Limits   map[string]int
	Channel  *layeringChannel
	Tags     []string
	Metadata map[string]any
}

func boolPtr(v bool) *bool {
	return &v
}

func TestMergeLayersReplacesSlices(t *testing.T) {
	strong := layeringSettings{
		Enabled: boolPtr(true),
		Tags:    []string{"user"},
		Limits:  map[string]int{"daily": 5},
	}
	weak := layeringSettings{
		Name:    "system",
		Enabled: boolPtr(false),
		Tags:    []string{"system", "default"},
		Limits:  map[string]int{"daily": 1, "monthly": 30},
	}

	got := MergeLayers(strong, weak)
	want := layeringSettings{
		Enabled: boolPtr(true),
		Tags:    []string{"user"},
		Limits:  map[string]int{"daily": 5, "monthly": 30},
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("merged snapshot mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestMergeAppendKeepsWeakFirst(t *testing.T) {
	cases := []struct {
		name   string
		layers []layeringSettings
		want   []string
	}{
		{
			name: "base then derived",
			layers: []layeringSettings{
				{Tags: []string{"c", "d"}},
				{Tags: []string{"a", "b"}},
			},
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "duplicates dropped",
			layers: []layeringSettings{
				{Tags: []string{"b", "c", "c"}},
				{Tags: []string{"a", "b"}},
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "three layers",
			layers: []layeringSettings{
				{Tags: []string{"z"}},
				{},
				{Tags: []string{"x"}},
			},
			want: []string{"x", "z"},
		},
		{
			name:   "all nil stays nil",
			layers: []layeringSettings{{}, {}},
			want:   nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.layers, WithSliceStrategy(SliceAppend))
			if !reflect.DeepEqual(tc.want, got.Tags) {
				t.Fatalf("want %#v, got %#v", tc.want, got.Tags)
			}
		})
	}
}

func TestMergeAppendNestedSlices(t *testing.T) {
	strong := layeringSettings{Channel: &layeringChannel{Labels: []string{"rom"}}}
	weak := layeringSettings{Channel: &layeringChannel{Enabled: boolPtr(true), Labels: []string{"ram"}}}

	got := Merge([]layeringSettings{strong, weak}, WithSliceStrategy(SliceAppend))
	if got.Channel == nil || got.Channel.Enabled == nil || !*got.Channel.Enabled {
		t.Fatalf("expected weak pointer field to fill in, got %#v", got.Channel)
	}
	if want := []string{"ram", "rom"}; !reflect.DeepEqual(want, got.Channel.Labels) {
		t.Fatalf("want %v, got %v", want, got.Channel.Labels)
	}
}

func TestMergeZeroAsUnset(t *testing.T) {
	strong := layeringSettings{Mode: 0, Name: ""}
	weak := layeringSettings{Mode: 3, Name: "base"}

	plain := Merge([]layeringSettings{strong, weak})
	if plain.Mode != 0 || plain.Name != "" {
		t.Fatalf("expected strong zero scalars to win by default, got %+v", plain)
	}

	got := Merge([]layeringSettings{strong, weak}, WithZeroAsUnset())
	if got.Mode != 3 || got.Name != "base" {
		t.Fatalf("expected weak scalars to survive, got %+v", got)
	}

	override := Merge([]layeringSettings{{Mode: 2}, weak}, WithZeroAsUnset())
	if override.Mode != 2 || override.Name != "base" {
		t.Fatalf("expected explicit override, got %+v", override)
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	type sample struct {
		Value int
	}
	var zero sample
	if got := MergeLayers[sample](); got != zero {
		t.Fatalf("expected MergeLayers() to return zero value, got %+v", got)
	}
}

func TestCloneDetachesNestedValues(t *testing.T) {
	original := layeringSettings{
		Tags:     []string{"a"},
		Limits:   map[string]int{"x": 1},
		Metadata: map[string]any{"nested": map[string]any{"k": "v"}},
	}
	clone := Clone(original)

	clone.Tags[0] = "mutated"
	clone.Limits["x"] = 2
	clone.Metadata["nested"].(map[string]any)["k"] = "changed"

	if original.Tags[0] != "a" || original.Limits["x"] != 1 {
		t.Fatalf("clone shares storage with original: %+v", original)
	}
	if original.Metadata["nested"].(map[string]any)["k"] != "v" {
		t.Fatalf("nested map was not cloned")
	}
}

func TestMergeFieldTagOverridesStrategy(t *testing.T) {
	type tagged struct {
		Modes []string `merge:"replace"`
		Files []string
	}
	strong := tagged{Modes: []string{"ROM"}, Files: []string{"b"}}
	weak := tagged{Modes: []string{"RAM", "USER"}, Files: []string{"a"}}

	got := Merge([]tagged{strong, weak}, WithSliceStrategy(SliceAppend))
	if want := []string{"ROM"}; !reflect.DeepEqual(want, got.Modes) {
		t.Fatalf("expected tagged field to be replaced, got %v", got.Modes)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(want, got.Files) {
		t.Fatalf("expected untagged field to append, got %v", got.Files)
	}

	inherited := Merge([]tagged{{}, weak}, WithSliceStrategy(SliceAppend))
	if want := []string{"RAM", "USER"}; !reflect.DeepEqual(want, inherited.Modes) {
		t.Fatalf("expected nil replace field to inherit, got %v", inherited.Modes)
	}
}
