package model

// Parameter is one function parameter.
type Parameter struct {
	Name     string
	Type     Type
	Default  string
	Variadic bool
	Start    int
	End      int
}

// ParameterList is an ordered, immutable parameter sequence.
type ParameterList struct {
	params []Parameter
}

// EmptyParameters is shared by every function without parameters.
var EmptyParameters = &ParameterList{}

// NewParameterList copies params. An empty input returns EmptyParameters.
func NewParameterList(params []Parameter) *ParameterList {
	if len(params) == 0 {
		return EmptyParameters
	}
	cp := make([]Parameter, len(params))
	copy(cp, params)
	return &ParameterList{params: cp}
}

func (l *ParameterList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.params)
}

func (l *ParameterList) At(i int) Parameter {
	return l.params[i]
}

// All returns a copy of the parameters.
func (l *ParameterList) All() []Parameter {
	if l.Len() == 0 {
		return nil
	}
	cp := make([]Parameter, len(l.params))
	copy(cp, l.params)
	return cp
}

// Lookup finds a parameter by name.
func (l *ParameterList) Lookup(name string) (Parameter, bool) {
	for i := 0; i < l.Len(); i++ {
		if l.params[i].Name == name {
			return l.params[i], true
		}
	}
	return Parameter{}, false
}

// IsVariadic reports whether the list ends with a C-style ellipsis or a
// parameter pack.
func (l *ParameterList) IsVariadic() bool {
	n := l.Len()
	return n > 0 && l.params[n-1].Variadic
}
