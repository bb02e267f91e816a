package model

// Equal compares declarations by the equality each kind defines: macros by
// name, includes by path, system flag and start offset, built-ins by name,
// and everything else by identity when both sides have one, or by kind,
// qualified name, file and offsets otherwise.
func Equal(a, b *Declaration) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindMacro:
		return a.Name == b.Name
	case KindInclude:
		ai, _ := a.Data.(*IncludeData)
		bi, _ := b.Data.(*IncludeData)
		if ai == nil || bi == nil {
			return ai == bi && a.Name == b.Name && a.Start == b.Start
		}
		return ai.Path == bi.Path && ai.System == bi.System && a.Start == b.Start
	case KindBuiltin:
		return a.Name == b.Name
	}
	au, bu := a.UID(), b.UID()
	if au.Kind == UIDDecl && bu.Kind == UIDDecl {
		return au == bu
	}
	return a.QualifiedName == b.QualifiedName &&
		a.File == b.File &&
		a.Start == b.Start &&
		a.End == b.End
}
