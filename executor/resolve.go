package executor

import "github.com/alexchoi0/blueprint/value"

// resolve replaces every Deferred nested in v with the terminal result of
// the node it names. It is only called once every data_dep of the owning
// node has reached Succeeded, so every Deferred it encounters already has
// a materialized result recorded in states.
func (s *scheduler) resolve(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindDeferred:
		id := v.AsDeferred()
		s.mu.Lock()
		result := s.states[id].result
		s.mu.Unlock()
		return result
	case value.KindList:
		items := v.AsList()
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[i] = s.resolve(item)
		}
		return value.List(out...)
	case value.KindMap:
		m := v.AsMap()
		out := make(map[string]value.Value, len(m))
		for k, item := range m {
			out[k] = s.resolve(item)
		}
		return value.Map(out)
	case value.KindStruct:
		m := v.AsStruct()
		out := make(map[string]value.Value, len(m))
		for k, item := range m {
			out[k] = s.resolve(item)
		}
		return value.Struct(out)
	default:
		return v
	}
}
