package repository

import (
	"context"
	"testing"

	"blackdonut/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFoodRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	foods := NewFoodRepository(db)
	comments := NewCommentRepository(db)
	engagement := NewEngagementRepository(db)
	ctx := context.Background()

	partner := seedPartner(t, db, "p@test.dev")
	user := seedUser(t, db, "u@test.dev")
	food := seedFood(t, db, partner.ID, "Glazed")
	keep := seedFood(t, db, partner.ID, "Keep")

	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "yum", FoodID: food.ID, AuthorID: user.ID, AuthorType: models.ActorUser}))
	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "stay", FoodID: keep.ID, AuthorID: user.ID, AuthorType: models.ActorUser}))
	_, err := engagement.ToggleLike(ctx, user.ID, food.ID)
	require.NoError(t, err)
	_, err = engagement.ToggleSave(ctx, user.ID, food.ID)
	require.NoError(t, err)

	require.NoError(t, foods.Delete(ctx, food.ID))

	for _, m := range []interface{}{&models.Like{}, &models.Save{}} {
		var n int64
		db.Model(m).Count(&n)
		assert.Zero(t, n)
	}
	var remaining int64
	db.Model(&models.Comment{}).Count(&remaining)
	assert.EqualValues(t, 1, remaining)

	_, err = foods.GetByID(ctx, food.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, foods.Delete(ctx, food.ID), gorm.ErrRecordNotFound)
}

func TestFoodRepository_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFoodRepository(db)
	partner := seedPartner(t, db, "p@test.dev")

	require.NoError(t, db.Create(&models.Food{Name: "old", Video: "v", FoodPartnerID: partner.ID, CreatedAt: at(1)}).Error)
	require.NoError(t, db.Create(&models.Food{Name: "new", Video: "v", FoodPartnerID: partner.ID, CreatedAt: at(2)}).Error)

	list, err := repo.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Name)
	assert.Equal(t, "Donut Hut", list[0].FoodPartner.Name)

	page, err := repo.List(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "old", page[0].Name)
}

func TestFoodRepository_ReconcileCounters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFoodRepository(db)
	ctx := context.Background()

	partner := seedPartner(t, db, "p@test.dev")
	food := seedFood(t, db, partner.ID, "Glazed")

	require.NoError(t, db.Create(&models.Like{UserID: 1, FoodID: food.ID}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: 2, FoodID: food.ID}).Error)
	require.NoError(t, db.Create(&models.Save{UserID: 1, FoodID: food.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{Text: "x", FoodID: food.ID, AuthorID: 1, AuthorType: models.ActorUser}).Error)
	require.NoError(t, db.Model(&models.Food{}).Where("id = ?", food.ID).
		Updates(map[string]interface{}{"like_count": 40, "saves_count": 0, "comment_count": 7}).Error)

	n, err := repo.ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got := reloadFood(t, db, food.ID)
	assert.Equal(t, 2, got.LikeCount)
	assert.Equal(t, 1, got.SavesCount)
	assert.Equal(t, 1, got.CommentCount)
}

func TestFoodRepository_UpdateFieldsMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFoodRepository(db)

	err := repo.UpdateFields(context.Background(), 42, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
