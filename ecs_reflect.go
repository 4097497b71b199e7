package instanced

import (
	"reflect"
)

func reflectSliceMake(elem reflect.Type) any {
	return reflect.MakeSlice(reflect.SliceOf(elem), 0, 1).Interface()
}

func reflectSliceGet(slice any, idx int) reflect.Value {
	return reflect.ValueOf(slice).Index(idx)
}

func reflectSliceSet(slice any, idx int, val reflect.Value) {
	reflect.ValueOf(slice).Index(idx).Set(val)
}

// reflectSliceAppend returns the grown slice; component storage must be
// reassigned since the backing array may move.
func reflectSliceAppend(slice any, val reflect.Value) any {
	return reflect.Append(
		reflect.ValueOf(slice),
		val,
	).Interface()
}

// typedColumn returns the archetype's storage for T, or ok=false.
func typedColumn[T any](arch *archetype, id componentId) (comps []T, ok bool) {
	data, ok := arch.componentData[id]
	if !ok {
		return nil, false
	}
	return data.([]T), true
}
