package drivers

import "github.com/alexchoi0/blueprint/value"

func fields(v value.Value) map[string]value.Value {
	if v.Kind() != value.KindStruct {
		return map[string]value.Value{}
	}
	return v.AsStruct()
}
