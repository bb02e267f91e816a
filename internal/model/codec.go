package model

import (
	"fmt"

	"github.com/standardbeagle/cxxmodel/internal/encoding"
	"github.com/standardbeagle/cxxmodel/internal/intern"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// recordVersion is written first so incompatible stores are detected.
const recordVersion = 1

// Encode serializes d: the common header (kind, flags, identity, file,
// offsets, names, scope, visibility) followed by the payload fields in
// declaration order.
func Encode(d *Declaration) []byte {
	w := encoding.NewWriter()
	w.WriteUint8(recordVersion)
	writeDeclaration(w, d)
	return w.Bytes()
}

// Decode reconstructs a declaration written by Encode.
func Decode(data []byte, s *Session) (*Declaration, error) {
	r := encoding.NewReader(data)
	if v := r.ReadUint8(); v != recordVersion {
		if err := r.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unsupported record version %d", v)
	}
	d := readDeclaration(r, s)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("record has no declaration")
	}
	return d, nil
}

func writeDeclaration(w *encoding.Writer, d *Declaration) {
	w.WriteUint8(uint8(d.Kind))
	w.WriteUvarint(uint64(d.Flags))
	WriteUID(w, d.uid)
	w.WriteUvarint(uint64(d.File))
	w.WriteInt(d.Start)
	w.WriteInt(d.End)
	w.WriteString(d.Name)
	w.WriteString(d.RawName)
	w.WriteString(d.QualifiedName)
	WriteUID(w, d.Scope.UID())
	w.WriteUint8(uint8(d.Visibility))

	w.WriteBool(d.Data != nil)
	switch p := d.Data.(type) {
	case *FunctionData:
		writeParams(w, p.Params)
		writeType(w, p.ReturnType)
		writeTemplate(w, p.Template)
		writeSpecParams(w, p.Specialization)
		w.WriteUint8(uint8(p.RefQualifier))
		w.WriteUint8(uint8(p.Body))
		w.WriteInt(len(p.Initializers))
		for _, in := range p.Initializers {
			w.WriteString(in.Name)
			w.WriteString(in.Args)
			w.WriteInt(in.Start)
			w.WriteInt(in.End)
		}
		WriteUID(w, p.FriendClass.UID())
		w.WriteString(p.InstantiatedName)
	case *FieldData:
		writeType(w, p.Type)
		w.WriteString(p.BitWidth)
		w.WriteString(p.Default)
	case *VariableData:
		writeType(w, p.Type)
		w.WriteString(p.Init)
		writeTemplate(w, p.Template)
		writeSpecParams(w, p.Specialization)
	case *ClassData:
		writeTemplate(w, p.Template)
		writeSpecParams(w, p.Specialization)
		w.WriteStrings(p.Bases)
	case *EnumData:
		w.WriteBool(p.Scoped)
		w.WriteString(p.Underlying)
	case *EnumeratorData:
		w.WriteString(p.Value)
	case *MacroData:
		w.WriteString(d.Name)
		w.WriteString(p.Body)
		w.WriteUint8(uint8(p.Kind))
		w.WriteStrings(p.Params)
	case *TypeAliasData:
		writeType(w, p.Type)
		writeTemplate(w, p.Template)
	case *TemplateParamData:
		w.WriteUint8(uint8(p.ParamKind))
		w.WriteInt(p.Index)
		w.WriteString(p.Default)
		writeType(w, p.Type)
	case *IncludeData:
		w.WriteString(p.Path)
		w.WriteBool(p.System)
		w.WriteUvarint(uint64(p.Target))
	case *ForwardClassData:
		w.WriteString(p.Keyword)
	case *NamespaceData:
		w.WriteBool(p.Inline)
	case *BuiltinData:
		w.WriteBool(p.Unknown)
	}
}

func readDeclaration(r *encoding.Reader, s *Session) *Declaration {
	d := &Declaration{Kind: Kind(r.ReadUint8())}
	d.Flags = Flags(r.ReadUvarint())
	d.uid = ReadUID(r, s)
	d.File = types.FileID(r.ReadUvarint())
	d.Start = r.ReadInt()
	d.End = r.ReadInt()
	d.Name = s.internName(r.ReadString())
	d.RawName = s.internName(r.ReadString())
	d.QualifiedName = s.internQualified(r.ReadString())
	d.Scope = TokenRef(s.Repo, ReadUID(r, s))
	d.Visibility = Visibility(r.ReadUint8())
	if r.Err() != nil {
		return nil
	}
	if d.Kind == KindInvalid || d.Kind >= kindCount {
		return nil
	}

	if !r.ReadBool() {
		return d
	}
	switch {
	case d.Kind.IsFunction():
		p := &FunctionData{}
		p.Params = readParams(r, s)
		p.ReturnType = readType(r, s)
		p.Template = readTemplate(r, s)
		p.Specialization = readSpecParams(r, s)
		p.RefQualifier = RefQualifier(r.ReadUint8())
		p.Body = BodyKind(r.ReadUint8())
		if n := r.ReadInt(); n > 0 && n <= r.Remaining() {
			p.Initializers = make([]Initializer, n)
			for i := range p.Initializers {
				p.Initializers[i] = Initializer{
					Name:  s.internName(r.ReadString()),
					Args:  s.intern(r.ReadString()),
					Start: r.ReadInt(),
					End:   r.ReadInt(),
				}
			}
		}
		p.FriendClass = TokenRef(s.Repo, ReadUID(r, s))
		p.InstantiatedName = s.internQualified(r.ReadString())
		d.Data = p
	case d.Kind == KindField:
		d.Data = &FieldData{
			Type:     readType(r, s),
			BitWidth: r.ReadString(),
			Default:  s.intern(r.ReadString()),
		}
	case d.Kind == KindVariable:
		d.Data = &VariableData{
			Type:           readType(r, s),
			Init:           s.intern(r.ReadString()),
			Template:       readTemplate(r, s),
			Specialization: readSpecParams(r, s),
		}
	case d.Kind == KindClass || d.Kind == KindStruct || d.Kind == KindUnion:
		d.Data = &ClassData{
			Template:       readTemplate(r, s),
			Specialization: readSpecParams(r, s),
			Bases:          s.Interner.InternAll(intern.QualifiedName, r.ReadStrings()),
		}
	case d.Kind == KindEnum:
		d.Data = &EnumData{Scoped: r.ReadBool(), Underlying: s.internName(r.ReadString())}
	case d.Kind == KindEnumerator:
		d.Data = &EnumeratorData{Value: s.intern(r.ReadString())}
	case d.Kind == KindMacro:
		d.Name = s.internName(r.ReadString())
		d.Data = &MacroData{
			Body:   s.Interner.Intern(intern.FileText, r.ReadString()),
			Kind:   MacroKind(r.ReadUint8()),
			Params: s.Interner.InternAll(intern.Name, r.ReadStrings()),
		}
	case d.Kind == KindTypeAlias:
		d.Data = &TypeAliasData{Type: readType(r, s), Template: readTemplate(r, s)}
	case d.Kind == KindTemplateParam:
		d.Data = &TemplateParamData{
			ParamKind: TemplateParamKind(r.ReadUint8()),
			Index:     r.ReadInt(),
			Default:   s.intern(r.ReadString()),
			Type:      readType(r, s),
		}
	case d.Kind == KindInclude:
		d.Data = &IncludeData{
			Path:   s.Interner.Intern(intern.FileText, r.ReadString()),
			System: r.ReadBool(),
			Target: types.FileID(r.ReadUvarint()),
		}
	case d.Kind == KindForwardClass:
		d.Data = &ForwardClassData{Keyword: s.internName(r.ReadString())}
	case d.Kind == KindNamespace:
		d.Data = &NamespaceData{Inline: r.ReadBool()}
	case d.Kind == KindBuiltin:
		d.Data = &BuiltinData{Unknown: r.ReadBool()}
	}
	if r.Err() != nil {
		return nil
	}
	if d.uid.Kind == UIDSelf {
		d.uid = UID{Kind: UIDSelf, File: d.File, Name: d.Name, self: d}
	}
	return d
}

func writeParams(w *encoding.Writer, l *ParameterList) {
	n := l.Len()
	w.WriteInt(n)
	for i := 0; i < n; i++ {
		p := l.At(i)
		w.WriteString(p.Name)
		writeType(w, p.Type)
		w.WriteString(p.Default)
		w.WriteBool(p.Variadic)
		w.WriteInt(p.Start)
		w.WriteInt(p.End)
	}
}

func readParams(r *encoding.Reader, s *Session) *ParameterList {
	n := r.ReadInt()
	if n <= 0 || n > r.Remaining() {
		return EmptyParameters
	}
	params := make([]Parameter, n)
	for i := range params {
		params[i] = Parameter{
			Name:     s.internName(r.ReadString()),
			Type:     readType(r, s),
			Default:  s.intern(r.ReadString()),
			Variadic: r.ReadBool(),
			Start:    r.ReadInt(),
			End:      r.ReadInt(),
		}
	}
	return NewParameterList(params)
}

// writeTemplate writes a descriptor; nil is written as count -1.
func writeTemplate(w *encoding.Writer, t *Template) {
	if t == nil {
		w.WriteInt(-1)
		return
	}
	w.WriteInt(len(t.Params))
	for _, u := range t.Params {
		WriteUID(w, u)
	}
	w.WriteString(t.Suffix)
	w.WriteInt(t.Inherited)
	w.WriteBool(t.Specialization)
}

func readTemplate(r *encoding.Reader, s *Session) *Template {
	n := r.ReadInt()
	if n < 0 || n > r.Remaining() {
		return nil
	}
	t := &Template{Params: make([]UID, n)}
	for i := range t.Params {
		t.Params[i] = ReadUID(r, s)
	}
	t.Suffix = s.intern(r.ReadString())
	t.Inherited = r.ReadInt()
	t.Specialization = r.ReadBool()
	return t
}

const (
	specType uint8 = iota + 1
	specExpr
	specVariadic
)

func writeSpecParams(w *encoding.Writer, list []SpecParam) {
	if list == nil {
		w.WriteInt(-1)
		return
	}
	w.WriteInt(len(list))
	for _, p := range list {
		switch v := p.(type) {
		case *TypeSpecParam:
			w.WriteUint8(specType)
			writeType(w, v.Type)
		case *ExprSpecParam:
			w.WriteUint8(specExpr)
			w.WriteString(v.Expr)
		case *VariadicSpecParam:
			w.WriteUint8(specVariadic)
			writeSpecParams(w, v.Params)
		default:
			w.WriteUint8(0)
		}
	}
}

func readSpecParams(r *encoding.Reader, s *Session) []SpecParam {
	n := r.ReadInt()
	if n < 0 || n > r.Remaining() {
		return nil
	}
	list := make([]SpecParam, 0, n)
	for i := 0; i < n; i++ {
		switch r.ReadUint8() {
		case specType:
			list = append(list, &TypeSpecParam{Type: readType(r, s)})
		case specExpr:
			list = append(list, &ExprSpecParam{Expr: s.intern(r.ReadString())})
		case specVariadic:
			list = append(list, &VariadicSpecParam{Params: readSpecParams(r, s)})
		}
	}
	return list
}

const (
	typeNil uint8 = iota
	typeNone
	typeSimple
	typeTemplateParam
	typeDecltype
)

func writeQualifiers(w *encoding.Writer, q Qualifiers) {
	w.WriteBool(q.Const)
	w.WriteUvarint(uint64(q.Pointer))
	w.WriteUint8(uint8(q.Reference))
}

func readQualifiers(r *encoding.Reader) Qualifiers {
	return Qualifiers{
		Const:     r.ReadBool(),
		Pointer:   int(r.ReadUvarint()),
		Reference: RefQualifier(r.ReadUint8()),
	}
}

func writeType(w *encoding.Writer, t Type) {
	switch v := t.(type) {
	case nil:
		w.WriteUint8(typeNil)
	case noType:
		w.WriteUint8(typeNone)
	case *SimpleType:
		w.WriteUint8(typeSimple)
		writeQualifiers(w, v.Qualifiers)
		w.WriteString(v.Spelling)
		w.WriteString(v.Name)
		WriteUID(w, v.Target)
		WriteUID(w, v.Scope)
	case *TemplateParamType:
		w.WriteUint8(typeTemplateParam)
		writeQualifiers(w, v.Qualifiers)
		w.WriteString(v.Spelling)
		w.WriteString(v.Name)
		WriteUID(w, v.Param)
	case *DecltypeType:
		w.WriteUint8(typeDecltype)
		writeQualifiers(w, v.Qualifiers)
		w.WriteString(v.Spelling)
		writeExpr(w, v.Expr)
		WriteUID(w, v.Owner)
		w.WriteUvarint(uint64(v.File))
	default:
		// computed types are stored by their text
		w.WriteUint8(typeSimple)
		writeQualifiers(w, Qualifiers{})
		w.WriteString(t.Text())
		w.WriteString(t.Text())
		WriteUID(w, NoUID)
		WriteUID(w, NoUID)
	}
}

func readType(r *encoding.Reader, s *Session) Type {
	switch r.ReadUint8() {
	case typeNone:
		return NoType
	case typeSimple:
		t := &SimpleType{Qualifiers: readQualifiers(r), session: s}
		t.Spelling = s.intern(r.ReadString())
		t.Name = s.internName(r.ReadString())
		t.Target = ReadUID(r, s)
		t.Scope = ReadUID(r, s)
		return t
	case typeTemplateParam:
		t := &TemplateParamType{Qualifiers: readQualifiers(r), session: s}
		t.Spelling = s.intern(r.ReadString())
		t.Name = s.internName(r.ReadString())
		t.Param = ReadUID(r, s)
		return t
	case typeDecltype:
		t := &DecltypeType{Qualifiers: readQualifiers(r), session: s}
		t.Spelling = s.intern(r.ReadString())
		t.Expr = readExpr(r, s)
		t.Owner = ReadUID(r, s)
		t.File = types.FileID(r.ReadUvarint())
		return t
	}
	return nil
}

func writeExpr(w *encoding.Writer, e Expr) {
	if e == nil {
		w.WriteUint8(0)
		return
	}
	w.WriteUint8(e.exprTag())
	switch x := e.(type) {
	case *IdentExpr:
		w.WriteString(x.Name)
	case *QualifiedExpr:
		w.WriteString(x.Name)
	case *LiteralExpr:
		w.WriteUint8(uint8(x.Kind))
		w.WriteString(x.Text)
	case *CallExpr:
		writeExpr(w, x.Callee)
		w.WriteInt(len(x.Args))
		for _, a := range x.Args {
			writeExpr(w, a)
		}
	case *MemberExpr:
		writeExpr(w, x.Base)
		w.WriteString(x.Name)
		w.WriteBool(x.Arrow)
	case *UnaryExpr:
		w.WriteUint8(x.Op)
		writeExpr(w, x.X)
	case *ParenExpr:
		writeExpr(w, x.X)
	}
}

func readExpr(r *encoding.Reader, s *Session) Expr {
	switch r.ReadUint8() {
	case exprIdent:
		return &IdentExpr{Name: s.internName(r.ReadString())}
	case exprQualified:
		return &QualifiedExpr{Name: s.internQualified(r.ReadString())}
	case exprLiteral:
		return &LiteralExpr{Kind: LiteralKind(r.ReadUint8()), Text: r.ReadString()}
	case exprCall:
		c := &CallExpr{Callee: readExpr(r, s)}
		if n := r.ReadInt(); n > 0 && n <= r.Remaining() {
			c.Args = make([]Expr, n)
			for i := range c.Args {
				c.Args[i] = readExpr(r, s)
			}
		}
		return c
	case exprMember:
		return &MemberExpr{Base: readExpr(r, s), Name: s.internName(r.ReadString()), Arrow: r.ReadBool()}
	case exprUnary:
		return &UnaryExpr{Op: r.ReadUint8(), X: readExpr(r, s)}
	case exprParen:
		return &ParenExpr{X: readExpr(r, s)}
	}
	return nil
}
