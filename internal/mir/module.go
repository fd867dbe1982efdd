package mir

// Module groups the function bodies of one compilation.
type Module struct {
	Funcs []*Func
}

// FuncByName returns the first function with the given name.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}
