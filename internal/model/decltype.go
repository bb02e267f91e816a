package model

import (
	"context"
	"sync/atomic"

	"github.com/standardbeagle/cxxmodel/internal/debug"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// DecltypeType is a type computed from an expression, e.g. decltype(a.b).
// Every query resolves the expression lazily. A resolved value is kept in a
// single slot, used only when no instantiation bindings are in play.
type DecltypeType struct {
	Qualifiers
	Spelling string
	Expr     Expr
	Owner    UID // declaration whose scope is searched
	File     types.FileID

	session *Session
	cache   atomic.Pointer[resolvedSlot]
}

type resolvedSlot struct {
	t Type // nil when the expression does not resolve
}

// NewDecltypeType creates a decltype type owned by owner.
func (s *Session) NewDecltypeType(spelling string, expr Expr, owner *Declaration, q Qualifiers) *DecltypeType {
	t := &DecltypeType{
		Qualifiers: q,
		Spelling:   s.intern(q.decorate(spelling)),
		Expr:       expr,
		session:    s,
	}
	if owner != nil {
		t.Owner = owner.UID()
		t.File = owner.File
	}
	return t
}

func (t *DecltypeType) Text() string { return t.Spelling }

func (t *DecltypeType) guardKey() resolutionKey {
	k := resolutionKey{owner: t.Owner, spelling: t.Spelling}
	if t.Owner.IsZero() {
		k.inst = t
	}
	return k
}

// resolve runs the expression. It returns the context to use for nested
// queries and a release func that the caller must defer.
func (t *DecltypeType) resolve(ctx context.Context) (context.Context, Type, func()) {
	if t.session == nil || IsParser(ctx, t.File) {
		return ctx, nil, func() {}
	}
	ctx, release, ok := enterResolution(ctx, t.guardKey())
	if !ok {
		debug.LogResolve("cycle on %s owned by %s", t.Spelling, t.Owner)
		return ctx, nil, release
	}

	cacheable := !HasInstantiation(ctx)
	if cacheable {
		if slot := t.cache.Load(); slot != nil {
			return ctx, slot.t, release
		}
	}

	owner := t.session.Repo.Resolve(ctx, t.Owner)
	res := t.session.TypeOf(ctx, t.Expr, owner)
	if res == Type(t) {
		res = nil
	}
	if cacheable {
		t.cache.Store(&resolvedSlot{t: res})
	}
	return ctx, res, release
}

// Resolved returns the computed type, or nil.
func (t *DecltypeType) Resolved(ctx context.Context) Type {
	_, res, release := t.resolve(ctx)
	defer release()
	return res
}

func (t *DecltypeType) IsPointer(ctx context.Context) bool {
	if t.Pointer > 0 {
		return true
	}
	if t.Reference != RefNone {
		return false
	}
	ctx, res, release := t.resolve(ctx)
	defer release()
	return res != nil && res.IsPointer(ctx)
}

func (t *DecltypeType) IsReference(ctx context.Context) bool {
	if t.Reference != RefNone {
		return true
	}
	if t.Pointer > 0 {
		return false
	}
	ctx, res, release := t.resolve(ctx)
	defer release()
	return res != nil && res.IsReference(ctx)
}

func (t *DecltypeType) IsRValueReference(ctx context.Context) bool {
	if t.Reference != RefNone || t.Pointer > 0 {
		return t.Reference == RefRValue
	}
	ctx, res, release := t.resolve(ctx)
	defer release()
	return res != nil && res.IsRValueReference(ctx)
}

func (t *DecltypeType) IsConst(ctx context.Context) bool {
	if t.Const {
		return true
	}
	if t.Pointer > 0 {
		return false
	}
	ctx, res, release := t.resolve(ctx)
	defer release()
	return res != nil && res.IsConst(ctx)
}

func (t *DecltypeType) Classifier(ctx context.Context) *Declaration {
	if t.session == nil || IsParser(ctx, t.File) {
		return nil
	}
	inner, res, release := t.resolve(ctx)
	defer release()
	if res != nil {
		if c := res.Classifier(inner); c != nil {
			return c
		}
	}
	return t.session.Builtins.Unknown(t.Spelling)
}

func (t *DecltypeType) pointerDepth(ctx context.Context) int {
	if t.Pointer > 0 || t.Reference != RefNone {
		return t.Pointer
	}
	ctx, res, release := t.resolve(ctx)
	defer release()
	return pointerDepth(ctx, res)
}
