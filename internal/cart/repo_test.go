package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variation_id TEXT,
  quantity INTEGER NOT NULL,
  price_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id, variation_id)
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartItems).Error)

	t.Cleanup(func() {
		db.Exec("DROP TABLE IF EXISTS cart_items")
		db.Exec("DROP TABLE IF EXISTS carts")
	})

	return db
}

func TestFindOrCreateByUserIsLazy(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	created, err := repo.FindOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, userID, created.UserID)

	again, err := repo.FindOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	var count int64
	require.NoError(t, db.Table("carts").Where("user_id = ?", userID.String()).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFindOrCreateByUserRecoversFromConcurrentInsert(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	winnerID := uuid.New()

	// Slip a competing cart in between the lookup and the insert, the way
	// a concurrent first add would.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("cart_concurrent_insert", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		insert := "INSERT INTO carts (id, user_id) VALUES (?, ?)"
		if err := db.Session(&gorm.Session{NewDB: true}).Exec(insert, winnerID.String(), userID.String()).Error; err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Callback().Create().Remove("cart_concurrent_insert")
	})

	cart, err := repo.FindOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, winnerID, cart.ID)
	assert.Equal(t, userID, cart.UserID)

	var count int64
	require.NoError(t, db.Table("carts").Where("user_id = ?", userID.String()).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
