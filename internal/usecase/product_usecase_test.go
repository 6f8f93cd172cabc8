package usecase

import (
	"context"
	"errors"
	"testing"

	"catalog_service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBullet(t *testing.T, f *fixture) *domain.Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), &domain.Product{
		Name:          "Bullet Rosa Recarregável",
		Description:   `<p>Bullet <strong>à prova d'água</strong>, comprimento: 8 cm</p><script>alert(1)</script>`,
		Price:         89.9,
		Stock:         4,
		SubcategoryID: f.bullets.ID,
		Tags:          []domain.Tag{{Type: domain.TagPersona, Value: "ela"}},
	})
	require.NoError(t, err)
	return p
}

func TestCreateProductEnriches(t *testing.T) {
	f := newFixture(t)
	p := createBullet(t, f)

	assert.Equal(t, "bullet-rosa-recarregavel", p.Slug)
	assert.Equal(t, f.vibradores.ID, p.CategoryID, "subcategory implies its parent")
	assert.Equal(t, "vibradores", p.CategorySlug)
	assert.Equal(t, "bullets", p.SubcategorySlug)
	assert.NotContains(t, p.Description, "script")
	assert.Equal(t, 8.0, p.LengthCM)

	assert.Equal(t, []string{
		"persona:ela",
		"feature:vibracao",
		"persona:discreto",
		"feature:recarregavel",
		"feature:a-prova-dagua",
	}, keys(p.Tags))
	assert.Equal(t, domain.SourceManual, p.Tags[0].Source)
	assert.Equal(t, domain.SourceInferred, p.Tags[1].Source)
	assert.Equal(t, 1, f.invalidator.calls)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]*domain.Product{
		"empty name":       {Name: " ", Price: 10},
		"zero price":       {Name: "A", Price: 0},
		"negative stock":   {Name: "A", Price: 10, Stock: -1},
		"negative measure": {Name: "A", Price: 10, LengthCM: -2},
		"missing category": {Name: "A", Price: 10, CategoryID: 99},
		"foreign subcat":   {Name: "A", Price: 10, CategoryID: f.casal.ID, SubcategoryID: f.bullets.ID},
		"subcat as cat":    {Name: "A", Price: 10, CategoryID: f.bullets.ID},
		"cat as subcat":    {Name: "A", Price: 10, SubcategoryID: f.casal.ID},
	}
	for name, p := range cases {
		_, err := f.products.CreateProduct(ctx, p)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}

	createBullet(t, f)
	_, err := f.products.CreateProduct(ctx, &domain.Product{Name: "Bullet Rosa Recarregavel", Price: 10})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateProductReenriches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := createBullet(t, f)

	updated, err := f.products.UpdateProduct(ctx, p.ID, map[string]interface{}{
		"description": "Agora com controle remoto",
		"tags":        []interface{}{"persona:iniciante"},
		"stock":       float64(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "Agora com controle remoto", updated.Description)
	assert.Equal(t, 8.0, updated.LengthCM, "extracted measures are kept")

	k := keys(updated.Tags)
	assert.Equal(t, "persona:iniciante", k[0])
	assert.Contains(t, k, "feature:controle-remoto")
	assert.Contains(t, k, "feature:recarregavel")
	assert.NotContains(t, k, "persona:ela")
	assert.NotContains(t, k, "feature:a-prova-dagua")

	moved, err := f.products.UpdateProduct(ctx, p.ID, map[string]interface{}{
		"subcategory_id": float64(f.sugadores.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "sugadores", moved.SubcategorySlug)
	assert.Contains(t, keys(moved.Tags), "feature:succao")
	assert.NotContains(t, keys(moved.Tags), "persona:discreto")
}

func TestUpdateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := createBullet(t, f)
	calls := f.invalidator.calls

	bad := []map[string]interface{}{
		{"name": ""},
		{"price": -1.0},
		{"stock": 2.5},
		{"stock": nil},
		{"category_id": "x"},
		{"length_cm": -1.0},
		{"tags": 12},
		{"subcategory_id": float64(f.casal.ID)},
	}
	for _, updates := range bad {
		_, err := f.products.UpdateProduct(ctx, p.ID, updates)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%v", updates)
	}

	same, err := f.products.UpdateProduct(ctx, p.ID, map[string]interface{}{"unknown": 1})
	require.NoError(t, err)
	assert.Equal(t, p.Name, same.Name)

	_, err = f.products.UpdateProduct(ctx, 404, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, calls, f.invalidator.calls)
}

func TestListProductsByCategoryIncludesSubcategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createBullet(t, f)
	_, err := f.products.CreateProduct(ctx, &domain.Product{Name: "Vibrador Casal", Price: 300, CategoryID: f.casal.ID})
	require.NoError(t, err)

	list, err := f.products.ListProductsByCategory(ctx, f.vibradores.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bullet-rosa-recarregavel", list[0].Slug)

	list, err = f.products.ListProductsByCategory(ctx, f.bullets.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.products.ListProductsByCategory(ctx, f.vibradores.ID, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.products.ListProductsByCategory(ctx, 99, 10, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetagIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createBullet(t, f)

	_, err := f.store.Products().CreateProduct(ctx, &domain.Product{
		Slug: "anel-casal", Name: "Anel para casal", Price: 49, CategoryID: f.casal.ID,
	})
	require.NoError(t, err)

	report, err := f.products.Retag(ctx)
	require.NoError(t, err)
	assert.Equal(t, RetagReport{Scanned: 2, Updated: 1}, report)

	anel, err := f.store.Products().GetProductBySlug(ctx, "anel-casal")
	require.NoError(t, err)
	assert.Equal(t, []string{"uso:casal", "persona:casal"}, keys(anel.Tags))

	report, err = f.products.Retag(ctx)
	require.NoError(t, err)
	assert.Equal(t, RetagReport{Scanned: 2, Updated: 0}, report)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := createBullet(t, f)

	require.NoError(t, f.products.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, f.products.DeleteProduct(ctx, p.ID), domain.ErrNotFound)
	_, err := f.products.GetProductByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// failingUpdates rejects every UpdateProduct call after reading through.
type failingUpdates struct {
	domain.ProductRepository
}

func (failingUpdates) UpdateProduct(context.Context, int, map[string]interface{}) (*domain.Product, error) {
	return nil, errors.New("connection reset")
}

func TestUpdateProductStoresTagsWithRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := createBullet(t, f)

	broken := NewProductUseCase(failingUpdates{f.store.Products()}, f.store.Categories(), testTagger(t), f.invalidator, nil, quietLogger())
	_, err := broken.UpdateProduct(ctx, p.ID, map[string]interface{}{
		"tags":        []interface{}{"persona:iniciante"},
		"description": "Agora com controle remoto",
	})
	require.Error(t, err)
	assert.Zero(t, f.invalidator.calls)

	stored, err := f.store.Products().GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, keys(p.Tags), keys(stored.Tags))
	assert.Equal(t, p.Description, stored.Description)

	updated, err := f.products.UpdateProduct(ctx, p.ID, map[string]interface{}{"tags": "persona:iniciante"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.invalidator.calls)
	assert.Equal(t, "persona:iniciante", keys(updated.Tags)[0])
}
