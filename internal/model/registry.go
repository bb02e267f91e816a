package model

import "context"

// Registry is the project-level declaration registry.
type Registry interface {
	RegisterDeclaration(d *Declaration)
	UnregisterDeclaration(d *Declaration)
	// FindClassifier returns the classifier with the given qualified name.
	FindClassifier(ctx context.Context, qualifiedName string) *Declaration
	// FindDeclarations returns every live declaration with the qualified name.
	FindDeclarations(ctx context.Context, qualifiedName string) []*Declaration
}

// FileIndex is the per-file content index.
type FileIndex interface {
	AddNameReference(name string, d *Declaration)
}

type nopRegistry struct{}

func (nopRegistry) RegisterDeclaration(*Declaration)                        {}
func (nopRegistry) UnregisterDeclaration(*Declaration)                      {}
func (nopRegistry) FindClassifier(context.Context, string) *Declaration     { return nil }
func (nopRegistry) FindDeclarations(context.Context, string) []*Declaration { return nil }
