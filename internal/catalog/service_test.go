package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanrivera/shopstream-backend/pkg/db"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/pagination"
)

func newCatalogService(t *testing.T) (Service, Repository) {
	t.Helper()
	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewWithConn(conn))
	require.NoError(t, err)
	return svc, repo
}

func TestServiceCreateAndGet(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:          "Desk Lamp",
		Brand:         "Lumen",
		Category:      "home",
		Price:         decimal.RequireFromString("19.99"),
		StockQuantity: 10,
		Available:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "19.99", created.Price)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.Equal(t, 10, got.StockQuantity)
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Brand: "Lumen", Price: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateProductInput{
		Name:  "Desk Lamp",
		Brand: "Lumen",
		Price: decimal.NewFromInt(-5),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceUpdate(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:          "Desk Lamp",
		Brand:         "Lumen",
		Price:         decimal.RequireFromString("19.99"),
		StockQuantity: 10,
		Available:     true,
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("24.50")
	newStock := 3
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{
		Price:         &newPrice,
		StockQuantity: &newStock,
	})
	require.NoError(t, err)
	assert.Equal(t, "24.50", updated.Price)
	assert.Equal(t, 3, updated.StockQuantity)
}

func TestServiceUpdateUnknownProduct(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	name := "Renamed"
	_, err := svc.Update(ctx, uuid.New(), UpdateProductInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceDelete(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:  "Desk Lamp",
		Brand: "Lumen",
		Price: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceSearch(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{
		Name:      "Mechanical Keyboard",
		Brand:     "KeyCo",
		Category:  "accessories",
		Price:     decimal.NewFromInt(80),
		Available: true,
	})
	require.NoError(t, err)

	result, err := svc.Search(ctx, "keyboard", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Mechanical Keyboard", result.Products[0].Name)
}
