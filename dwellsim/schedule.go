package dwellsim

// Schedules are expressed concisely in input files and built from
// sub-schedules (e.g. a weekly schedule assembled from daily ones). Each
// entry of a schedule list can be:
//   - a literal value (number or bool, depending on the schedule kind),
//   - a string referencing the name of a sibling schedule,
//   - a map {"value": entry, "repeat": n} repeating the expanded entry n times,
//   - null, where the schedule kind allows it.
//
// Expansion happens once at construction; lookups afterwards are plain
// slice reads.

// ExpandNumericSchedule expands the schedule named main within schedDict
// into a flat list of values. Entries expand to nil only when nullable is
// true; otherwise a null entry is a configuration error.
func ExpandNumericSchedule(schedDict map[string][]any, main string, nullable bool) ([]*float64, error) {
	raw, err := expandEntries(schedDict, main, nullable)
	if err != nil {
		return nil, err
	}
	out := make([]*float64, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, configErrorf("Schedule."+main, "entry %d: expected number, got %T", i, v)
		}
		out[i] = &f
	}
	return out, nil
}

// ExpandBooleanSchedule expands the schedule named main within schedDict
// into a flat list of booleans. Null entries are not permitted.
func ExpandBooleanSchedule(schedDict map[string][]any, main string) ([]bool, error) {
	raw, err := expandEntries(schedDict, main, false)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(raw))
	for i, v := range raw {
		b, ok := v.(bool)
		if !ok {
			return nil, configErrorf("Schedule."+main, "entry %d: expected bool, got %T", i, v)
		}
		out[i] = b
	}
	return out, nil
}

// ExpandNullableBooleanSchedule expands the schedule named main within
// schedDict into a flat list of booleans where null entries are kept as
// nil.
func ExpandNullableBooleanSchedule(schedDict map[string][]any, main string) ([]*bool, error) {
	raw, err := expandEntries(schedDict, main, true)
	if err != nil {
		return nil, err
	}
	out := make([]*bool, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return nil, configErrorf("Schedule."+main, "entry %d: expected bool, got %T", i, v)
		}
		out[i] = &b
	}
	return out, nil
}

func expandEntries(schedDict map[string][]any, name string, nullable bool) ([]any, error) {
	sched, ok := schedDict[name]
	if !ok {
		return nil, configErrorf("Schedule", "no schedule named %q", name)
	}
	var out []any
	for _, entry := range sched {
		expanded, err := expandEntry(schedDict, name, entry, nullable)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandEntry(schedDict map[string][]any, name string, entry any, nullable bool) ([]any, error) {
	switch e := entry.(type) {
	case string:
		if _, ok := schedDict[e]; !ok {
			return nil, configErrorf("Schedule."+name, "reference to unknown schedule %q", e)
		}
		return expandEntries(schedDict, e, nullable)
	case map[string]any:
		val, okV := e["value"]
		repeatRaw, okR := e["repeat"]
		if !okV || !okR {
			return nil, configErrorf("Schedule."+name, "repeat entry needs both 'value' and 'repeat'")
		}
		repeatF, ok := toFloat(repeatRaw)
		if !ok || repeatF != float64(int(repeatF)) || repeatF < 0 {
			return nil, configErrorf("Schedule."+name, "'repeat' must be a non-negative integer, got %v", repeatRaw)
		}
		expanded, err := expandEntry(schedDict, name, val, nullable)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(expanded)*int(repeatF))
		for i := 0; i < int(repeatF); i++ {
			out = append(out, expanded...)
		}
		return out, nil
	case nil:
		if !nullable {
			return nil, configErrorf("Schedule."+name, "null entry in non-nullable schedule")
		}
		return []any{nil}, nil
	default:
		return []any{entry}, nil
	}
}

// toFloat accepts the numeric types encoding/json and the yaml parser
// produce for numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
