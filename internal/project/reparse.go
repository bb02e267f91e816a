package project

import (
	"context"
	"fmt"

	"github.com/standardbeagle/cxxmodel/internal/builder"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// captured is one declaration of a file taken apart for rebuilding.
type captured struct {
	uid     model.UID
	scope   model.UID
	outer   *model.Declaration // scope in another file, nil when the scope is rebuilt too
	vis     model.Visibility
	name    string
	creator builder.Creator
}

// FastReparse rebuilds the declarations of a file whose content did not
// change without running the parser. Every declaration is captured into a
// pre-filled builder, the old ones are disposed and the builders run again
// in creation order, each in the rebuilt counterpart of its old scope. bc
// is the file-level context; its Index must be fi.
func FastReparse(ctx context.Context, bc *builder.Context, fi *FileIndex) ([]*model.Declaration, error) {
	s := bc.Session
	rebuilt := make(map[model.UID]*model.Declaration)
	remap := func(u model.UID) *model.Declaration { return rebuilt[u] }

	old := fi.Declarations()
	caps := make([]captured, 0, len(old))
	for _, d := range old {
		c, ok := builder.FromDeclaration(ctx, s, d, remap)
		if !ok {
			continue
		}
		cp := captured{uid: d.UID(), vis: d.Visibility, name: d.QualifiedName, creator: c}
		if d.Scope != nil {
			cp.scope = d.Scope.UID()
			if cp.scope.Kind == model.UIDDecl && cp.scope.File != fi.ID {
				cp.outer = d.Scope.Get(ctx)
			}
		}
		caps = append(caps, cp)
	}

	fi.Dispose(ctx, s, s.Registry())

	var decls []*model.Declaration
	var errs []error
	for _, c := range caps {
		scope := c.outer
		if scope == nil {
			scope = remap(c.scope)
		}
		if scope == nil && (c.scope.Kind == model.UIDDecl || c.scope.Kind == model.UIDSelf) {
			errs = append(errs, fmt.Errorf("rebuild %s: %w", c.name, cxerrors.NewBuildError("FastReparse", "scope", cxerrors.ErrMissingCollaborator)))
			continue
		}
		d, err := c.creator.Create(ctx, bc.WithScope(ctx, scope, c.vis))
		if err != nil {
			errs = append(errs, fmt.Errorf("rebuild %s: %w", c.name, err))
			continue
		}
		rebuilt[c.uid] = d
		decls = append(decls, d)
	}
	debug.LogBuild("fast reparse of %s: %d of %d declarations rebuilt", fi.Path, len(decls), len(caps))
	return decls, cxerrors.NewMultiError(errs).ErrorOrNil()
}
