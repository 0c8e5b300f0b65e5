// Package brand wires the entity registry into the normalizer, the
// low-coverage catalog, the query enhancer and the response validator.
package brand

import (
	stderrors "errors"
	"fmt"

	"rag-brand-guard/internal/brand/catalog"
	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/internal/brand/normalizer"
	"rag-brand-guard/internal/brand/validator"
	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/pkg/registry"
)

// Core holds the components built from one registry document. Every
// component is immutable and safe for concurrent use.
type Core struct {
	Registry   *registry.EntityRegistry
	Catalog    *catalog.Catalog
	Normalizer *normalizer.Normalizer
	Enhancer   *enhancer.Enhancer
	Validator  *validator.Validator
}

// Load reads the registry at path, or the embedded one when path is empty,
// and builds a Core from it.
func Load(path string, opts enhancer.Options) (*Core, error) {
	reg, err := catalog.LoadRegistry(path)
	if err != nil {
		if stderrors.Is(err, registry.ErrRegistryInvalid) {
			return nil, errors.NewCatalogInvalidError(err).WithMetadata("path", path)
		}
		return nil, errors.NewCatalogLoadFailedError(path, err)
	}
	return New(reg, opts)
}

func New(reg *registry.EntityRegistry, opts enhancer.Options) (*Core, error) {
	n, err := normalizer.New(reg)
	if err != nil {
		return nil, errors.NewCatalogInvalidError(fmt.Errorf("compile normalizer: %w", err))
	}

	cat := catalog.New(reg)
	e, err := enhancer.New(cat, opts)
	if err != nil {
		return nil, errors.NewCatalogInvalidError(fmt.Errorf("build enhancer: %w", err))
	}

	return &Core{
		Registry:   reg,
		Catalog:    cat,
		Normalizer: n,
		Enhancer:   e,
		Validator:  validator.New(reg, n),
	}, nil
}
