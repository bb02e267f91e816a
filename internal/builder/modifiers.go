package builder

import (
	"github.com/standardbeagle/cxxmodel/internal/ast"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// modifiers is the result of the left-to-right token scan of a
// declaration.
type modifiers struct {
	flags model.Flags
	body  model.BodyKind
	ref   model.RefQualifier
}

// bodyState tracks the ")" then "=" then delete/default sequence that
// classifies a defaulted or deleted body. A delete or default token only
// counts in the final state.
type bodyState uint8

const (
	bodyOpen    bodyState = iota // before the parameter list closes
	bodyClosed                   // seen ")"
	bodyAssigned                 // seen ")" then "="
)

// scanModifiers walks the modifier-bearing tokens of n in source order.
func scanModifiers(n *ast.Node) modifiers {
	var m modifiers
	state := bodyOpen
	for _, tok := range ast.Tokens(n) {
		if !tok.IsLeaf() {
			switch tok.Type {
			case "compound_statement", "try_statement":
				if state != bodyOpen {
					m.body = model.BodyRegular
				}
			}
			continue
		}
		if tok.Missing {
			continue
		}
		switch tok.Text {
		case "static":
			m.flags |= model.FlagStatic
		case "virtual":
			m.flags |= model.FlagVirtual
		case "explicit":
			m.flags |= model.FlagExplicit
		case "inline":
			m.flags |= model.FlagInline
		case "friend":
			m.flags |= model.FlagFriend
		case "override":
			if state != bodyOpen {
				m.flags |= model.FlagOverride
			}
		case "final":
			if state != bodyOpen {
				m.flags |= model.FlagFinal
			}
		case "const":
			// before ")" it qualifies the return type
			if state == bodyClosed {
				m.flags |= model.FlagConst
			}
		case "...":
			if state == bodyOpen {
				m.flags |= model.FlagVariadic
			}
		case ")":
			if state == bodyOpen {
				state = bodyClosed
			}
		case "&", "&&":
			if state == bodyClosed {
				if tok.Text == "&" {
					m.ref = model.RefLValue
				} else {
					m.ref = model.RefRValue
				}
			}
		case "=":
			if state == bodyClosed {
				state = bodyAssigned
			}
		case "delete":
			if state == bodyAssigned {
				m.body = model.BodyDelete
				m.flags |= model.FlagDefaultedOrDeleted
			}
		case "default":
			if state == bodyAssigned {
				m.body = model.BodyDefault
				m.flags |= model.FlagDefaultedOrDeleted
			}
		case "0":
			if state == bodyAssigned {
				m.flags |= model.FlagPure
			}
		}
	}
	return m
}
