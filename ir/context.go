package ir

import (
	"fmt"

	"github.com/papyrus-lang/papyrus/sema"
)

// Context is one script's lowering state: the function-signature->label
// table built as definitions are seen (grounded on original_source's
// Context.func_labels) and the set of labels already emitted, used to
// disambiguate same-named overloads the way original_source's
// Context.add_label counts existing prefixes. Control-flow labels are
// allocated per function body by funcScope.newLocalLabel instead.
type Context struct {
	path       string
	funcLabels map[string]string // sema.Signature.String() -> emitted label
	labelSeq   map[string]int    // label base name -> count already emitted
}

func newContext(path string) *Context {
	return &Context{
		path:       path,
		funcLabels: map[string]string{},
		labelSeq:   map[string]int{},
	}
}

// newLabel allocates a script-unique label with the given base name,
// appending a numeric suffix on repeat use (original_source's
// add_label/create_temp_label counting scheme).
func (c *Context) newLabel(base string) string {
	n := c.labelSeq[base]
	c.labelSeq[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, n)
}

// assignFuncLabel gives sig a script-unique label, disambiguating
// same-named overloads the same way newLabel disambiguates control-flow
// labels.
func (c *Context) assignFuncLabel(sig sema.Signature) string {
	label := c.newLabel(sig.Name)
	c.funcLabels[sig.String()] = label
	return label
}

// labelFor returns the label previously assigned to sig by this script's
// own lowering pass.
func (c *Context) labelFor(sig sema.Signature) (string, bool) {
	l, ok := c.funcLabels[sig.String()]
	return l, ok
}
