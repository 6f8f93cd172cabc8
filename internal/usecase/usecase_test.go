package usecase

import (
	"context"
	"io"
	"testing"

	"catalog_service/internal/domain"
	"catalog_service/internal/repository"
	"catalog_service/internal/tagging"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.calls++
}

func testTagger(t *testing.T) *tagging.Tagger {
	t.Helper()
	rules, err := tagging.DefaultRules()
	require.NoError(t, err)
	return tagging.NewTagger(rules)
}

type fixture struct {
	store       *repository.MemoryStore
	categories  CategoryUseCase
	products    ProductUseCase
	invalidator *countingInvalidator
	vibradores  *domain.Category
	bullets     *domain.Category
	sugadores   *domain.Category
	casal       *domain.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: repository.NewMemoryStore(), invalidator: &countingInvalidator{}}
	log := quietLogger()
	f.categories = NewCategoryUseCase(f.store.Categories(), f.invalidator, log)
	f.products = NewProductUseCase(f.store.Products(), f.store.Categories(), testTagger(t), f.invalidator, nil, log)

	var err error
	f.vibradores, err = f.categories.CreateCategory(ctx, &domain.Category{Name: "Vibradores"})
	require.NoError(t, err)
	f.bullets, err = f.categories.CreateCategory(ctx, &domain.Category{Name: "Bullets", ParentID: f.vibradores.ID})
	require.NoError(t, err)
	f.sugadores, err = f.categories.CreateCategory(ctx, &domain.Category{Name: "Sugadores", ParentID: f.vibradores.ID})
	require.NoError(t, err)
	f.casal, err = f.categories.CreateCategory(ctx, &domain.Category{Name: "Casal"})
	require.NoError(t, err)
	f.invalidator.calls = 0
	return f
}

func keys(tags []domain.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Key())
	}
	return out
}
