package config

import "reflect"

// merge copies every value set in overlay onto base. Scalars override when
// non-zero, lists and tables replace the default wholesale when present.
func merge(base, overlay *Config) {
	mergeValue(reflect.ValueOf(base).Elem(), reflect.ValueOf(overlay).Elem())
}

func mergeValue(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			mergeValue(dst.Field(i), src.Field(i))
		}
	case reflect.Slice, reflect.Map:
		if !src.IsNil() {
			dst.Set(src)
		}
	default:
		if !src.IsZero() {
			dst.Set(src)
		}
	}
}
