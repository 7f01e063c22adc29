package complexity

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeClass
	scopeFunction
)

// scope is one frame of the context stack.
type scope struct {
	kind scopeKind
	name string // empty for the module
	line int

	// class is the index into walker.classes of the owning class, or -1.
	// A class frame owns itself; a function inherits its parent's owner.
	class int

	decisions int
	exits     int
	depth     int
}

// scopeStack is the module -> class -> function context stack. The top
// frame is the active scope.
type scopeStack struct {
	frames []*scope
}

func (s *scopeStack) push(sc *scope) {
	s.frames = append(s.frames, sc)
}

func (s *scopeStack) pop() *scope {
	n := len(s.frames)
	if n == 0 {
		return nil
	}
	top := s.frames[n-1]
	s.frames[n-1] = nil
	s.frames = s.frames[:n-1]
	return top
}

func (s *scopeStack) top() *scope {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// owner returns the class inherited by a scope entered now.
func (s *scopeStack) owner() int {
	if top := s.top(); top != nil {
		return top.class
	}
	return -1
}

func (s *scopeStack) len() int {
	return len(s.frames)
}
