package loyalty

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT,
  password_hash TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  points INTEGER NOT NULL DEFAULT 0,
  birth_date DATE,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  price INTEGER NOT NULL,
  category_id TEXT,
  image_url TEXT,
  point_cost INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	redemptions := `
CREATE TABLE IF NOT EXISTS redemptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  point_cost INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(redemptions).Error)
	return db
}

func newLoyaltyUser(t *testing.T, db *gorm.DB, points int) *models.User {
	t.Helper()

	user := &models.User{
		ID:     uuid.New(),
		Name:   "Maria Prueba",
		Email:  uuid.NewString() + "@example.com",
		Points: points,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newRedeemableProduct(t *testing.T, db *gorm.DB, pointCost int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:        uuid.New(),
		Name:      "Brownie",
		Slug:      "brownie-" + uuid.NewString(),
		Price:     2500,
		PointCost: &pointCost,
		IsActive:  true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createRedemption(t *testing.T, db *gorm.DB, user *models.User, product *models.Product, created time.Time) *models.Redemption {
	t.Helper()

	redemption := &models.Redemption{
		ID:        uuid.New(),
		UserID:    user.ID,
		ProductID: product.ID,
		PointCost: 300,
		Status:    enums.RedemptionStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(redemption).Error)
	return redemption
}

func TestRepositorySpendPoints_guard(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := newLoyaltyUser(t, db, 500)

	ok, err := repo.SpendPoints(ctx, user.ID, 300)
	require.NoError(t, err)
	assert.True(t, ok)

	points, err := repo.GetUserPoints(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, points)

	ok, err = repo.SpendPoints(ctx, user.ID, 300)
	require.NoError(t, err)
	assert.False(t, ok, "spend beyond balance must not apply")

	points, err = repo.GetUserPoints(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, points)
}

func TestRepositoryAddPoints(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := newLoyaltyUser(t, db, 10)

	require.NoError(t, repo.AddPoints(ctx, user.ID, 50))
	require.NoError(t, repo.AddPoints(ctx, user.ID, 100))

	points, err := repo.GetUserPoints(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 160, points)
}

func TestRepositoryUpdateRedemptionStatus(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := newLoyaltyUser(t, db, 0)
	product := newRedeemableProduct(t, db, 300)
	redemption := createRedemption(t, db, user, product, time.Now().UTC())

	deliveredAt := time.Now().UTC()
	require.NoError(t, repo.UpdateRedemptionStatus(ctx, redemption.ID, enums.RedemptionStatusDelivered, &deliveredAt))

	found, err := repo.FindRedemptionByID(ctx, redemption.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusDelivered, found.Status)
	require.NotNil(t, found.DeliveredAt)
	require.NotNil(t, found.Product)
	assert.Equal(t, product.ID, found.Product.ID)
}

func TestRepositoryListRedemptions_pagination(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := newLoyaltyUser(t, db, 0)
	other := newLoyaltyUser(t, db, 0)
	product := newRedeemableProduct(t, db, 300)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		createRedemption(t, db, user, product, base.Add(time.Duration(i)*time.Minute))
	}
	createRedemption(t, db, other, product, base.Add(time.Hour))

	page, cursor, err := repo.ListRedemptions(ctx, listRedemptionsParams{UserID: &user.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt), "newest first")

	rest, next, err := repo.ListRedemptions(ctx, listRedemptionsParams{UserID: &user.ID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, next)
	for _, redemption := range rest {
		assert.Equal(t, user.ID, redemption.UserID)
	}
}
