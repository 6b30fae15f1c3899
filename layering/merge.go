package layering

import "reflect"

// SliceStrategy decides how slices coming from two layers are combined.
type SliceStrategy int

const (
	// SliceReplace keeps the strongest non-nil slice.
	SliceReplace SliceStrategy = iota
	// SliceAppend keeps the weaker elements first and appends the stronger
	// elements that are not already present.
	SliceAppend
)

// MergeOption configures a merge run.
type MergeOption func(*mergeConfig)

type mergeConfig struct {
	slices    SliceStrategy
	zeroUnset bool
}

// WithSliceStrategy selects how slices are combined across layers.
func WithSliceStrategy(strategy SliceStrategy) MergeOption {
	return func(cfg *mergeConfig) {
		cfg.slices = strategy
	}
}

// WithZeroAsUnset treats zero scalars in stronger layers as missing so the
// weaker value survives. A stronger layer cannot reset a scalar back to its
// zero value in this mode.
func WithZeroAsUnset() MergeOption {
	return func(cfg *mergeConfig) {
		cfg.zeroUnset = true
	}
}

// MergeLayers composes snapshots ordered from strongest to weakest, returning a
// new value that keeps explicit settings from stronger layers while filling any
// missing data from weaker ones.
func MergeLayers[T any](layers ...T) T {
	return Merge(layers)
}

// Merge composes layers ordered from strongest to weakest using opts.
func Merge[T any](layers []T, opts ...MergeOption) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}

	cfg := mergeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	merged := cloneValue(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = cfg.mergeValue(reflect.ValueOf(layers[i]), merged)
	}
	return convert[T](merged)
}

// Clone returns a deep copy of value.
func Clone[T any](value T) T {
	return convert[T](cloneValue(reflect.ValueOf(value)))
}

func convert[T any](value reflect.Value) T {
	var zero T
	if !value.IsValid() {
		return zero
	}
	target := reflect.TypeOf(zero)
	if target == nil {
		// T is an interface type; hand the dynamic value back as is.
		if out, ok := value.Interface().(T); ok {
			return out
		}
		return zero
	}
	if value.Type() != target {
		result := reflect.New(target).Elem()
		result.Set(value.Convert(target))
		return result.Interface().(T)
	}
	return value.Interface().(T)
}

// forField applies a `merge:"append"` or `merge:"replace"` struct tag, which
// overrides the slice strategy for that field and everything below it.
func (cfg mergeConfig) forField(field reflect.StructField) mergeConfig {
	switch field.Tag.Get("merge") {
	case "append":
		cfg.slices = SliceAppend
	case "replace":
		cfg.slices = SliceReplace
	}
	return cfg
}

func (cfg mergeConfig) mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return cloneValue(weak)
	}

	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Pointer && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		merged := cfg.mergeValue(strong.Elem(), weakElem)
		result := reflect.New(strong.Type().Elem())
		result.Elem().Set(merged)
		return result
	case reflect.Interface:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		var weakElem reflect.Value
		if weak.IsValid() && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		merged := cfg.mergeValue(strong.Elem(), weakElem)
		return merged.Convert(strong.Type())
	case reflect.Struct:
		result := reflect.New(strong.Type()).Elem()
		var weakStruct reflect.Value
		if weak.IsValid() && weak.Type() == strong.Type() {
			weakStruct = weak
		}
		for i := 0; i < strong.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			var weakField reflect.Value
			if weakStruct.IsValid() {
				weakField = weakStruct.Field(i)
			}
			field.Set(cfg.forField(strong.Type().Field(i)).mergeValue(strong.Field(i), weakField))
		}
		return result
	case reflect.Map:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		result := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() && weak.Kind() == reflect.Map && !weak.IsNil() {
			iter := weak.MapRange()
			for iter.Next() {
				result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			key := iter.Key()
			value := iter.Value()
			existing := result.MapIndex(key)
			if existing.IsValid() {
				result.SetMapIndex(key, cfg.mergeValue(value, existing))
				continue
			}
			result.SetMapIndex(key, cloneValue(value))
		}
		return result
	case reflect.Slice:
		if cfg.slices == SliceAppend {
			return appendUnique(strong, weak)
		}
		if strong.IsNil() {
			return cloneValue(weak)
		}
		result := reflect.MakeSlice(strong.Type(), strong.Len(), strong.Len())
		for i := 0; i < strong.Len(); i++ {
			result.Index(i).Set(cloneValue(strong.Index(i)))
		}
		return result
	case reflect.Array:
		result := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.Len(); i++ {
			var weakElem reflect.Value
			if weak.IsValid() && weak.Kind() == reflect.Array && weak.Len() > i {
				weakElem = weak.Index(i)
			}
			result.Index(i).Set(cfg.mergeValue(strong.Index(i), weakElem))
		}
		return result
	default:
		if cfg.zeroUnset && strong.IsZero() && weak.IsValid() && weak.Type() == strong.Type() {
			return cloneValue(weak)
		}
		return cloneValue(strong)
	}
}

// appendUnique returns weak followed by the elements of strong, dropping any
// element equal to one already collected. The result is nil when both sides
// are nil so that "unset" survives the merge.
func appendUnique(strong, weak reflect.Value) reflect.Value {
	hasWeak := weak.IsValid() && weak.Kind() == reflect.Slice && weak.Type() == strong.Type() && !weak.IsNil()
	if strong.IsNil() && !hasWeak {
		return reflect.Zero(strong.Type())
	}

	capacity := strong.Len()
	if hasWeak {
		capacity += weak.Len()
	}
	result := reflect.MakeSlice(strong.Type(), 0, capacity)
	add := func(elem reflect.Value) {
		for i := 0; i < result.Len(); i++ {
			if reflect.DeepEqual(result.Index(i).Interface(), elem.Interface()) {
				return
			}
		}
		result = reflect.Append(result, cloneValue(elem))
	}
	if hasWeak {
		for i := 0; i < weak.Len(); i++ {
			add(weak.Index(i))
		}
	}
	for i := 0; i < strong.Len(); i++ {
		add(strong.Index(i))
	}
	return result
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		if !v.CanInterface() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
