package service

import (
	"context"
	"sync"
	"testing"

	"blackdonut/internal/cache"
	"blackdonut/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairToggler mimics the repository toggle over an in-memory set.
func pairToggler() func(context.Context, uint, uint) (models.ToggleResult, error) {
	var mu sync.Mutex
	rows := map[[2]uint]bool{}
	count := 0
	return func(_ context.Context, userID, foodID uint) (models.ToggleResult, error) {
		mu.Lock()
		defer mu.Unlock()
		key := [2]uint{userID, foodID}
		if rows[key] {
			delete(rows, key)
			count--
			return models.ToggleResult{Active: false, Count: count}, nil
		}
		rows[key] = true
		count++
		return models.ToggleResult{Active: true, Count: count}, nil
	}
}

func TestEngagementService_ToggleLike(t *testing.T) {
	t.Parallel()

	repo := &engagementRepoStub{toggleLikeFn: pairToggler()}
	svc := NewEngagementService(repo, foodRepoWith(ownedFood()))
	ctx := context.Background()

	first, err := svc.ToggleLike(ctx, 1, diner)
	require.NoError(t, err)
	assert.Equal(t, models.ToggleResult{Active: true, Count: 1}, first.ToggleResult)
	assert.Equal(t, owner.ID, first.Food.FoodPartnerID)

	second, err := svc.ToggleLike(ctx, 1, diner)
	require.NoError(t, err)
	assert.Equal(t, models.ToggleResult{Active: false, Count: 0}, second.ToggleResult)
}

func TestEngagementService_ToggleSave_Validation(t *testing.T) {
	t.Parallel()

	repo := &engagementRepoStub{toggleSaveFn: pairToggler()}
	svc := NewEngagementService(repo, foodRepoWith(ownedFood()))
	ctx := context.Background()

	tests := []struct {
		name   string
		foodID uint
		actor  models.Actor
		check  func(*testing.T, error)
	}{
		{name: "missing food id", foodID: 0, actor: diner, check: assertValidationError},
		{name: "missing actor", foodID: 1, actor: models.Actor{}, check: assertValidationError},
		{name: "partner cannot save", foodID: 1, actor: owner, check: assertValidationError},
		{name: "unknown food", foodID: 42, actor: diner, check: assertNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.ToggleSave(ctx, tt.foodID, tt.actor)
			tt.check(t, err)
		})
	}
}

func TestEngagementService_ToggleMapsVanishedFood(t *testing.T) {
	t.Parallel()

	repo := &engagementRepoStub{
		toggleLikeFn: func(_ context.Context, _, _ uint) (models.ToggleResult, error) {
			return models.ToggleResult{}, errRecordNotFound()
		},
	}
	svc := NewEngagementService(repo, foodRepoWith(ownedFood()))

	_, err := svc.ToggleLike(context.Background(), 1, diner)
	assertNotFoundError(t, err)
}

func TestEngagementService_ListSaved(t *testing.T) {
	t.Parallel()

	repo := &engagementRepoStub{
		listSavedFn: func(_ context.Context, _ uint) ([]*models.Food, error) { return nil, nil },
	}
	svc := NewEngagementService(repo, foodRepoWith())

	foods, err := svc.ListSaved(context.Background(), diner)
	require.NoError(t, err)
	assert.NotNil(t, foods)
	assert.Empty(t, foods)

	_, err = svc.ListSaved(context.Background(), owner)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestEngagementService_ReconcileCounters(t *testing.T) {
	t.Parallel()

	foods := foodRepoWith()
	foods.reconcileFn = func(_ context.Context) (int64, error) { return 3, nil }
	svc := NewEngagementService(&engagementRepoStub{}, foods)

	n, err := svc.ReconcileCounters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

// Not parallel: the cache client is package state.
func TestCounterWritesDropCachedPartnerProfile(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	key := cache.PartnerProfileKey(owner.ID)
	engagement := NewEngagementService(
		&engagementRepoStub{toggleLikeFn: pairToggler(), toggleSaveFn: pairToggler()},
		foodRepoWith(ownedFood()),
	)
	comments := NewCommentService(
		commentRepoWith(&models.Comment{ID: 5, FoodID: 1, AuthorID: diner.ID, AuthorType: models.ActorUser}),
		foodRepoWith(ownedFood()),
	)

	writes := []struct {
		name  string
		write func() error
	}{
		{"like", func() error { _, err := engagement.ToggleLike(ctx, 1, diner); return err }},
		{"save", func() error { _, err := engagement.ToggleSave(ctx, 1, diner); return err }},
		{"comment", func() error {
			_, err := comments.AddComment(ctx, AddCommentInput{Actor: diner, FoodID: 1, Text: "yum"})
			return err
		}},
		{"delete own comment", func() error { _, err := comments.DeleteOwnComment(ctx, 5, diner); return err }},
		{"moderation delete", func() error { _, err := comments.DeleteAsOwner(ctx, 5, owner); return err }},
	}
	for _, tt := range writes {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, mr.Set(key, `{"id":7}`))
			require.NoError(t, tt.write())
			assert.False(t, mr.Exists(key))
		})
	}

	require.NoError(t, mr.Set(key, `{"id":7}`))
	_, err := engagement.ToggleLike(ctx, 404, diner)
	assertNotFoundError(t, err)
	assert.True(t, mr.Exists(key), "failed writes leave the cache alone")
}
