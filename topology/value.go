package topology

import (
	"encoding/json"
	"fmt"

	"github.com/tessera-sim/evsim/sim"
)

// value decodes one JSON scalar or homogeneous array into a
// sim.Unstructured. JSON has no integer/float distinction, so any number
// whose value is integral (including spellings such as 2.0 or 1e3) decodes
// as a signed int; anything else numeric decodes as a double. This loader
// never produces the
// unsigned-int arm: JSON's number grammar gives no signal to tell "unsigned"
// apart from "signed", and the source's own JSON-facing tooling makes the
// same call.
type value struct {
	sim.Unstructured
}

func (v *value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u, err := decodeValue(raw)
	if err != nil {
		return err
	}
	v.Unstructured = u
	return nil
}

func decodeValue(raw interface{}) (sim.Unstructured, error) {
	switch t := raw.(type) {
	case nil:
		return sim.NoneValue(), nil
	case bool:
		if t {
			return sim.IntValue(1), nil
		}
		return sim.IntValue(0), nil
	case string:
		return sim.StringValue(t), nil
	case float64:
		if t == float64(int64(t)) {
			return sim.IntValue(int64(t)), nil
		}
		return sim.DoubleValue(t), nil
	case []interface{}:
		return decodeList(t)
	default:
		return sim.Unstructured{}, fmt.Errorf("topology: unsupported JSON value %T", raw)
	}
}

func decodeList(items []interface{}) (sim.Unstructured, error) {
	if len(items) == 0 {
		return sim.StringListValue(nil), nil
	}

	switch items[0].(type) {
	case string:
		out := make([]string, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return sim.Unstructured{}, fmt.Errorf("topology: mixed-type list element %d", i)
			}
			out[i] = s
		}
		return sim.StringListValue(out), nil
	case float64:
		allInt := true
		nums := make([]float64, len(items))
		for i, it := range items {
			f, ok := it.(float64)
			if !ok {
				return sim.Unstructured{}, fmt.Errorf("topology: mixed-type list element %d", i)
			}
			nums[i] = f
			if f != float64(int64(f)) {
				allInt = false
			}
		}
		if allInt {
			out := make([]int64, len(nums))
			for i, f := range nums {
				out[i] = int64(f)
			}
			return sim.IntListValue(out), nil
		}
		return sim.DoubleListValue(nums), nil
	default:
		return sim.Unstructured{}, fmt.Errorf("topology: unsupported list element type %T", items[0])
	}
}
