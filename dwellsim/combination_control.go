package dwellsim

import "math"

// CombinationOp is an operator combining the results of sub-controls.
type CombinationOp int

const (
	OpAND CombinationOp = iota
	OpOR
	OpXOR
	OpNOT
	OpMAX
	OpMIN
	OpMEAN
)

func CombinationOpFromString(s string) (CombinationOp, error) {
	switch s {
	case "AND":
		return OpAND, nil
	case "OR":
		return OpOR, nil
	case "XOR":
		return OpXOR, nil
	case "NOT":
		return OpNOT, nil
	case "MAX":
		return OpMAX, nil
	case "MIN":
		return OpMIN, nil
	case "MEAN":
		return OpMEAN, nil
	default:
		return 0, configErrorf("CombinationTimeControl", "operation %q not valid", s)
	}
}

// CombinationEntry is one named node in a combination tree. Controls may
// name either other combination entries or leaf controls.
type CombinationEntry struct {
	Operation CombinationOp
	Controls  []string
}

// CombinationTimeControl models a control built from nested combinations
// of other controls. The combination named "main" is the root. References
// must form an acyclic graph; this is checked at construction.
type CombinationTimeControl struct {
	combination map[string]CombinationEntry
	controls    map[string]Control
}

func NewCombinationTimeControl(
	combination map[string]CombinationEntry,
	controls map[string]Control,
) (*CombinationTimeControl, error) {
	if _, ok := combination["main"]; !ok {
		return nil, configErrorf("CombinationTimeControl", "no combination named \"main\"")
	}
	for name, entry := range combination {
		if entry.Operation == OpNOT && len(entry.Controls) != 1 {
			return nil, configErrorf("CombinationTimeControl."+name, "NOT requires exactly one operand")
		}
		for _, ref := range entry.Controls {
			_, isComb := combination[ref]
			_, isCtrl := controls[ref]
			if !isComb && !isCtrl {
				return nil, configErrorf("CombinationTimeControl."+name, "reference to unknown control %q", ref)
			}
		}
	}
	if err := checkCombinationAcyclic(combination); err != nil {
		return nil, err
	}
	return &CombinationTimeControl{combination: combination, controls: controls}, nil
}

func checkCombinationAcyclic(combination map[string]CombinationEntry) error {
	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int, len(combination))
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case grey:
			return configErrorf("CombinationTimeControl", "combination %q refers to itself in a cycle", name)
		case black:
			return nil
		}
		state[name] = grey
		for _, ref := range combination[name].Controls {
			if _, ok := combination[ref]; ok {
				if err := visit(ref); err != nil {
					return err
				}
			}
		}
		state[name] = black
		return nil
	}
	for name := range combination {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// IsOn evaluates whether the overall control is active at timestep idx.
func (c *CombinationTimeControl) IsOn(idx int) bool {
	return c.evaluateIsOn("main", idx)
}

func (c *CombinationTimeControl) evaluateIsOn(name string, idx int) bool {
	entry := c.combination[name]
	results := make([]bool, 0, len(entry.Controls))
	for _, ref := range entry.Controls {
		if _, ok := c.combination[ref]; ok {
			results = append(results, c.evaluateIsOn(ref, idx))
		} else {
			results = append(results, c.controls[ref].IsOn(idx))
		}
	}

	switch entry.Operation {
	case OpAND, OpMAX, OpMIN, OpMEAN:
		// Numeric operators still gate activity on every operand being on.
		return allOf(results)
	case OpOR:
		return anyOf(results)
	case OpXOR:
		n := 0
		for _, r := range results {
			if r {
				n++
			}
		}
		return n%2 == 1
	case OpNOT:
		return !results[0]
	default:
		return false
	}
}

// InRequiredPeriod evaluates whether the current time is inside the
// scheduled period of the combined controls (advanced start and min/max
// limits excluded for setpoint members).
func (c *CombinationTimeControl) InRequiredPeriod(idx int) (bool, error) {
	return c.evaluateInReqPeriod("main", idx)
}

func (c *CombinationTimeControl) evaluateInReqPeriod(name string, idx int) (bool, error) {
	entry := c.combination[name]
	results := make([]bool, 0, len(entry.Controls))
	hasOnOff := false
	hasSetpoint := false
	for _, ref := range entry.Controls {
		if _, ok := c.combination[ref]; ok {
			r, err := c.evaluateInReqPeriod(ref, idx)
			if err != nil {
				return false, err
			}
			results = append(results, r)
			continue
		}
		switch ctrl := c.controls[ref].(type) {
		case *SetpointTimeControl:
			hasSetpoint = true
			results = append(results, ctrl.InRequiredPeriod(idx))
		default:
			hasOnOff = true
			results = append(results, ctrl.IsOn(idx))
		}
	}

	switch {
	case hasOnOff && hasSetpoint:
		if entry.Operation != OpAND {
			return false, configErrorf("CombinationTimeControl."+name,
				"on/off + setpoint combination only supports AND for required-period queries")
		}
		return allOf(results), nil
	case hasOnOff:
		return false, configErrorf("CombinationTimeControl."+name,
			"on/off-only combination has no required period")
	default:
		switch entry.Operation {
		case OpAND, OpMIN:
			return allOf(results), nil
		case OpOR, OpMAX:
			return anyOf(results), nil
		case OpXOR:
			n := 0
			for _, r := range results {
				if r {
					n++
				}
			}
			return n == 1, nil
		case OpMEAN:
			n := 0
			for _, r := range results {
				if r {
					n++
				}
			}
			return float64(n)/float64(len(results)) > 0.5, nil
		default:
			return false, configErrorf("CombinationTimeControl."+name,
				"operation not supported for required-period queries")
		}
	}
}

// setpntResult is the value of one operand in a setpoint evaluation:
// either a boolean gate or a numeric setpoint (nil when gated off).
type setpntResult struct {
	isNumeric bool
	num       *float64
	b         bool
}

// Setpnt returns the setpoint for timestep idx, or nil when the combined
// controls yield none.
func (c *CombinationTimeControl) Setpnt(idx int) (*float64, error) {
	r, err := c.evaluateSetpnt("main", idx)
	if err != nil {
		return nil, err
	}
	if !r.isNumeric {
		return nil, configErrorf("CombinationTimeControl.main",
			"combination of on/off controls only has no setpoint")
	}
	return r.num, nil
}

func (c *CombinationTimeControl) evaluateSetpnt(name string, idx int) (setpntResult, error) {
	entry := c.combination[name]
	results := make([]setpntResult, 0, len(entry.Controls))
	for _, ref := range entry.Controls {
		if _, ok := c.combination[ref]; ok {
			r, err := c.evaluateSetpnt(ref, idx)
			if err != nil {
				return setpntResult{}, err
			}
			results = append(results, r)
			continue
		}
		switch ctrl := c.controls[ref].(type) {
		case *SetpointTimeControl:
			results = append(results, setpntResult{isNumeric: true, num: ctrl.Setpnt(idx)})
		default:
			results = append(results, setpntResult{b: ctrl.IsOn(idx)})
		}
	}

	var nums []setpntResult
	var bools []setpntResult
	for _, r := range results {
		if r.isNumeric {
			nums = append(nums, r)
		} else {
			bools = append(bools, r)
		}
	}

	switch {
	case len(nums) > 0 && len(bools) > 0:
		if entry.Operation != OpAND {
			return setpntResult{}, configErrorf("CombinationTimeControl."+name,
				"on/off + setpoint combination only supports AND for setpoint queries")
		}
		if len(nums) > 1 {
			return setpntResult{}, configErrorf("CombinationTimeControl."+name,
				"only one setpoint-valued operand allowed in an AND combination")
		}
		for _, b := range bools {
			if !b.b {
				return setpntResult{isNumeric: true, num: nil}, nil
			}
		}
		return nums[0], nil
	case len(nums) == 0:
		// Pure on/off sub-combination: propagate the boolean result so an
		// enclosing AND can gate a setpoint with it.
		on := c.evaluateIsOn(name, idx)
		return setpntResult{b: on}, nil
	default:
		var vals []float64
		for _, r := range nums {
			if r.num != nil {
				vals = append(vals, *r.num)
			}
		}
		if len(vals) == 0 {
			return setpntResult{isNumeric: true, num: nil}, nil
		}
		var v float64
		switch entry.Operation {
		case OpMAX:
			v = vals[0]
			for _, x := range vals[1:] {
				v = math.Max(v, x)
			}
		case OpMIN:
			v = vals[0]
			for _, x := range vals[1:] {
				v = math.Min(v, x)
			}
		case OpMEAN:
			for _, x := range vals {
				v += x
			}
			v /= float64(len(vals))
		default:
			return setpntResult{}, configErrorf("CombinationTimeControl."+name,
				"setpoint combinations support MAX, MIN and MEAN only")
		}
		return setpntResult{isNumeric: true, num: &v}, nil
	}
}

// TargetCharge evaluates the single ChargeControl in the combination.
// Exactly one is required for a meaningful target charge.
func (c *CombinationTimeControl) TargetCharge(idx int, tempAir *float64) (float64, error) {
	var found []*ChargeControl
	var walk func(name string)
	walk = func(name string) {
		for _, ref := range c.combination[name].Controls {
			if _, ok := c.combination[ref]; ok {
				walk(ref)
			} else if cc, ok := c.controls[ref].(*ChargeControl); ok {
				found = append(found, cc)
			}
		}
	}
	walk("main")
	if len(found) == 0 {
		return 0, configErrorf("CombinationTimeControl",
			"at least one ChargeControl required to determine target charge")
	}
	if len(found) > 1 {
		return 0, configErrorf("CombinationTimeControl",
			"no more than one ChargeControl allowed to determine target charge")
	}
	return found[0].TargetCharge(idx, tempAir), nil
}

func allOf(vs []bool) bool {
	for _, v := range vs {
		if !v {
			return false
		}
	}
	return true
}

func anyOf(vs []bool) bool {
	for _, v := range vs {
		if v {
			return true
		}
	}
	return false
}
