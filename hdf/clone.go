package hdf

// Clone returns a deep copy of the execution. Nested slices and the
// passthrough map are copied recursively, so mutating the clone never
// reaches the original. The evaluation store relies on this to hand out
// snapshots while keeping registered documents frozen.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	out := *e
	out.Passthrough = cloneValueMap(e.Passthrough)
	if e.Profiles != nil {
		out.Profiles = make([]Profile, len(e.Profiles))
		for i := range e.Profiles {
			out.Profiles[i] = *e.Profiles[i].Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Supports != nil {
		out.Supports = make([]map[string]string, len(p.Supports))
		for i, m := range p.Supports {
			out.Supports[i] = cloneStringMap(m)
		}
	}
	if p.Attributes != nil {
		out.Attributes = make([]map[string]interface{}, len(p.Attributes))
		for i, m := range p.Attributes {
			out.Attributes[i] = cloneValueMap(m)
		}
	}
	if p.Depends != nil {
		out.Depends = make([]Dependency, len(p.Depends))
		copy(out.Depends, p.Depends)
	}
	if p.Groups != nil {
		out.Groups = make([]ControlGroup, len(p.Groups))
		for i := range p.Groups {
			out.Groups[i] = p.Groups[i].clone()
		}
	}
	if p.Controls != nil {
		out.Controls = make([]Control, len(p.Controls))
		for i := range p.Controls {
			out.Controls[i] = *p.Controls[i].Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the control.
func (c *Control) Clone() *Control {
	if c == nil {
		return nil
	}
	out := *c
	if c.Descriptions != nil {
		out.Descriptions = make([]Description, len(c.Descriptions))
		copy(out.Descriptions, c.Descriptions)
	}
	if c.Refs != nil {
		out.Refs = make([]Reference, len(c.Refs))
		copy(out.Refs, c.Refs)
	}
	out.Tags = cloneValueMap(c.Tags)
	if c.Results != nil {
		out.Results = make([]ControlResult, len(c.Results))
		for i := range c.Results {
			out.Results[i] = c.Results[i].clone()
		}
	}
	return &out
}

func (g *ControlGroup) clone() ControlGroup {
	out := *g
	if g.Title != nil {
		title := *g.Title
		out.Title = &title
	}
	if g.Controls != nil {
		out.Controls = make([]string, len(g.Controls))
		copy(out.Controls, g.Controls)
	}
	return out
}

func (r *ControlResult) clone() ControlResult {
	out := *r
	if r.Backtrace != nil {
		out.Backtrace = make([]string, len(r.Backtrace))
		copy(out.Backtrace, r.Backtrace)
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneValueMap deep-copies a decoded JSON object. Scalars are immutable
// and shared as-is; nested objects and arrays are copied.
func cloneValueMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneValueMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
