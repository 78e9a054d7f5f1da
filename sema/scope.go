package sema

// varBinding is one variable's static type, recorded at the point its
// `ident : type` declaration is validated.
type varBinding struct {
	typ Type
}

// ctxTag is one of the validator's context markers (§3 Environment:
// "a set of context tags"), pushed onto the active scope while validating
// the body of the construct that sets it.
type ctxTag string

const (
	ctxTravel    ctxTag = "in_travel"
	ctxSubcanvas ctxTag = "in_subcanvas"
	ctxWhile     ctxTag = "in_while"
)

// scope is one lexical block: a chain link carrying its own variable
// bindings, depth, and inherited context tags. Grounded on the teacher's
// scope.Scope parent-chain (github.com/akashmaji946/go-mix/scope), adapted
// from a dynamic value map to a static type map.
type scope struct {
	vars   map[string]varBinding
	parent *scope
	depth  int
	ctx    map[ctxTag]bool
	// exitType is set only while validating a function body (§3:
	// "a reserved variable name set only while validating a function
	// body"); it names the enclosing function's declared return type.
	exitType Type
	hasExit  bool
}

func newRootScope() *scope {
	return &scope{vars: map[string]varBinding{}, depth: 0, ctx: map[ctxTag]bool{}}
}

// child opens a nested scope one depth deeper, inheriting the parent's
// context tags (a context set by an enclosing construct stays active in
// nested blocks unless explicitly cleared by the caller).
func (s *scope) child() *scope {
	ctx := make(map[ctxTag]bool, len(s.ctx))
	for k, v := range s.ctx {
		ctx[k] = v
	}
	return &scope{
		vars:     map[string]varBinding{},
		parent:   s,
		depth:    s.depth + 1,
		ctx:      ctx,
		exitType: s.exitType,
		hasExit:  s.hasExit,
	}
}

func (s *scope) has(tag ctxTag) bool {
	return s.ctx[tag]
}

// declare binds name in this scope; it is the caller's responsibility to
// have already checked for collisions via lookup.
func (s *scope) declare(name string, typ Type) {
	s.vars[name] = varBinding{typ: typ}
}

// lookup searches this scope and its ancestors, innermost first.
func (s *scope) lookup(name string) (varBinding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return varBinding{}, false
}

// existsLocally reports whether name is bound anywhere in the chain — used
// for the "name already exists in scope" collision rule (§4.3), which the
// spec does not restrict to the innermost block alone.
func (s *scope) existsLocally(name string) bool {
	_, ok := s.lookup(name)
	return ok
}
