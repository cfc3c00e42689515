package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"blackdonut/internal/mailer"
	"blackdonut/internal/media"
	"blackdonut/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByFoodFn   func(context.Context, uint) ([]*models.Comment, error)
	countByFoodFn  func(context.Context, uint) (int64, error)
	togglePinnedFn func(context.Context, uint) (*models.Comment, error)
	setReplyFn     func(context.Context, *models.Comment, *models.CommentReply) error
	deleteFn       func(context.Context, *models.Comment) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByFood(ctx context.Context, foodID uint) ([]*models.Comment, error) {
	return s.listByFoodFn(ctx, foodID)
}
func (s *commentRepoStub) CountByFood(ctx context.Context, foodID uint) (int64, error) {
	return s.countByFoodFn(ctx, foodID)
}
func (s *commentRepoStub) TogglePinned(ctx context.Context, id uint) (*models.Comment, error) {
	return s.togglePinnedFn(ctx, id)
}
func (s *commentRepoStub) SetReply(ctx context.Context, c *models.Comment, r *models.CommentReply) error {
	return s.setReplyFn(ctx, c, r)
}
func (s *commentRepoStub) Delete(ctx context.Context, c *models.Comment) error {
	return s.deleteFn(ctx, c)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:      func(_ context.Context, _ uint) (*models.Comment, error) { return nil, gorm.ErrRecordNotFound },
		listByFoodFn:   func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		countByFoodFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		togglePinnedFn: func(_ context.Context, _ uint) (*models.Comment, error) { return nil, gorm.ErrRecordNotFound },
		setReplyFn: func(_ context.Context, c *models.Comment, r *models.CommentReply) error {
			c.Reply = r
			return nil
		},
		deleteFn: func(_ context.Context, _ *models.Comment) error { return nil },
	}
}

// foodRepoStub is a stub for repository.FoodRepository.
type foodRepoStub struct {
	createFn       func(context.Context, *models.Food) error
	getByIDFn      func(context.Context, uint) (*models.Food, error)
	listFn         func(context.Context, int, int) ([]*models.Food, error)
	updateFieldsFn func(context.Context, uint, map[string]interface{}) error
	deleteFn       func(context.Context, uint) error
	reconcileFn    func(context.Context) (int64, error)
}

func (s *foodRepoStub) Create(ctx context.Context, f *models.Food) error { return s.createFn(ctx, f) }
func (s *foodRepoStub) GetByID(ctx context.Context, id uint) (*models.Food, error) {
	return s.getByIDFn(ctx, id)
}
func (s *foodRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Food, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *foodRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *foodRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *foodRepoStub) ReconcileCounters(ctx context.Context) (int64, error) {
	return s.reconcileFn(ctx)
}

// foodRepoWith serves the given foods by id and reports the rest missing.
func foodRepoWith(foods ...*models.Food) *foodRepoStub {
	byID := make(map[uint]*models.Food, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}
	return &foodRepoStub{
		createFn: func(_ context.Context, _ *models.Food) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Food, error) {
			f, ok := byID[id]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			cp := *f
			return &cp, nil
		},
		listFn:         func(_ context.Context, _, _ int) ([]*models.Food, error) { return nil, nil },
		updateFieldsFn: func(_ context.Context, _ uint, _ map[string]interface{}) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
		reconcileFn:    func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// engagementRepoStub is a stub for repository.EngagementRepository.
type engagementRepoStub struct {
	toggleLikeFn func(context.Context, uint, uint) (models.ToggleResult, error)
	toggleSaveFn func(context.Context, uint, uint) (models.ToggleResult, error)
	listSavedFn  func(context.Context, uint) ([]*models.Food, error)
}

func (s *engagementRepoStub) ToggleLike(ctx context.Context, userID, foodID uint) (models.ToggleResult, error) {
	return s.toggleLikeFn(ctx, userID, foodID)
}
func (s *engagementRepoStub) ToggleSave(ctx context.Context, userID, foodID uint) (models.ToggleResult, error) {
	return s.toggleSaveFn(ctx, userID, foodID)
}
func (s *engagementRepoStub) ListSavedFoods(ctx context.Context, userID uint) ([]*models.Food, error) {
	return s.listSavedFn(ctx, userID)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn         func(context.Context, *models.User) error
	getByIDFn        func(context.Context, uint) (*models.User, error)
	getByEmailFn     func(context.Context, string) (*models.User, error)
	setResetTokenFn  func(context.Context, uint, *string, *time.Time) error
	updatePasswordFn func(context.Context, uint, string) error
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) SetResetToken(ctx context.Context, id uint, hash *string, exp *time.Time) error {
	return s.setResetTokenFn(ctx, id, hash, exp)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}

// partnerRepoStub is a stub for repository.FoodPartnerRepository.
type partnerRepoStub struct {
	createFn         func(context.Context, *models.FoodPartner) error
	getByIDFn        func(context.Context, uint) (*models.FoodPartner, error)
	getByEmailFn     func(context.Context, string) (*models.FoodPartner, error)
	getWithFoodsFn   func(context.Context, uint) (*models.FoodPartner, error)
	updateFieldsFn   func(context.Context, uint, map[string]interface{}) error
	setResetTokenFn  func(context.Context, uint, *string, *time.Time) error
	updatePasswordFn func(context.Context, uint, string) error
}

func (s *partnerRepoStub) Create(ctx context.Context, p *models.FoodPartner) error {
	return s.createFn(ctx, p)
}
func (s *partnerRepoStub) GetByID(ctx context.Context, id uint) (*models.FoodPartner, error) {
	return s.getByIDFn(ctx, id)
}
func (s *partnerRepoStub) GetByEmail(ctx context.Context, email string) (*models.FoodPartner, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *partnerRepoStub) GetWithFoods(ctx context.Context, id uint) (*models.FoodPartner, error) {
	return s.getWithFoodsFn(ctx, id)
}
func (s *partnerRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *partnerRepoStub) SetResetToken(ctx context.Context, id uint, hash *string, exp *time.Time) error {
	return s.setResetTokenFn(ctx, id, hash, exp)
}
func (s *partnerRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}

// storeStub records uploads and deletes.
type storeStub struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	uploaded  []string
	deleted   []string
}

func (s *storeStub) Upload(_ context.Context, kind media.Kind, publicID string, r io.Reader) (*media.Asset, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	_, _ = io.Copy(io.Discard, r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = append(s.uploaded, publicID)
	return &media.Asset{URL: "https://cdn.test/" + string(kind) + "/" + publicID, PublicID: publicID}, nil
}

func (s *storeStub) Delete(_ context.Context, _ media.Kind, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, publicID)
	return s.deleteErr
}

// mailerStub captures sent messages.
type mailerStub struct {
	err  error
	sent []mailer.Message
}

func (m *mailerStub) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var (
	owner    = models.Actor{ID: 7, Kind: models.ActorFoodPartner}
	stranger = models.Actor{ID: 8, Kind: models.ActorFoodPartner}
	diner    = models.Actor{ID: 7, Kind: models.ActorUser}
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeNotFound)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
}

func errRecordNotFound() error { return gorm.ErrRecordNotFound }
