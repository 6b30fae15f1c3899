package rts

import (
	"errors"
	"fmt"
	"strings"
)

// RuleError reports a source rule that failed to compile or run. Layer names
// the lineage layer declaring the rule and is empty when the rule was
// evaluated outside a descriptor build.
type RuleError struct {
	Engine string
	Rule   string
	Target string
	Layer  string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("rts: ")
	if e.Rule == "" {
		b.WriteString("empty rule")
	} else {
		fmt.Fprintf(&b, "rule %q", e.Rule)
	}
	if e.Layer != "" {
		fmt.Fprintf(&b, " of layer %q", e.Layer)
	}
	if e.Target != "" {
		fmt.Fprintf(&b, " failed for target %q", e.Target)
	} else {
		b.WriteString(" failed")
	}
	if e.Engine != "" {
		fmt.Fprintf(&b, " (%s)", e.Engine)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// engineError reports a failure of the engine itself rather than of one rule.
// Errors already carrying the package prefix pass through untouched.
func engineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) || strings.HasPrefix(err.Error(), "rts:") {
		return err
	}
	return fmt.Errorf("rts: %s engine: %w", engine, err)
}

// ruleError attaches the rule being evaluated to err. When err already is a
// RuleError only the missing details are filled in.
func ruleError(engine, rule, target string, err error) error {
	if err == nil {
		return nil
	}
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		return &RuleError{Engine: engine, Rule: rule, Target: target, Err: err}
	}
	fill(&ruleErr.Engine, engine)
	fill(&ruleErr.Rule, rule)
	fill(&ruleErr.Target, target)
	return ruleErr
}

// inLayer records the layer whose rule produced err.
func inLayer(err error, layer string) error {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		fill(&ruleErr.Layer, layer)
		return err
	}
	return fmt.Errorf("rts: layer %q: %w", layer, err)
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
