package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"blackdonut/internal/mailer"
	"blackdonut/internal/media"
	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/repository"
	"blackdonut/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultResetTTL = 15 * time.Minute
	resetTokenBytes = 32
)

var errInvalidCredentials = models.NewUnauthorizedError("Invalid email or password")

// AuthService registers and authenticates users and partners and runs the
// password reset flow for both.
type AuthService struct {
	users       repository.UserRepository
	partners    repository.FoodPartnerRepository
	store       media.Store
	mail        mailer.Mailer
	frontendURL string
	resetTTL    time.Duration
	now         func() time.Time
}

type AuthConfig struct {
	FrontendURL   string
	ResetTokenTTL time.Duration
}

type RegisterUserInput struct {
	FullName string `json:"fullName" form:"fullName" validate:"required,notblank,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

type RegisterPartnerInput struct {
	Name        string `json:"name" form:"name" validate:"required,notblank,max=100"`
	ContactName string `json:"contactName" form:"contactName" validate:"required,notblank,max=100"`
	Phone       string `json:"phone" form:"phone" validate:"required,notblank,max=30"`
	Address     string `json:"address" form:"address" validate:"required,notblank,max=200"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required,min=6,max=72"`

	ImageName string    `json:"-" form:"-"`
	Image     io.Reader `json:"-" form:"-"`
}

func NewAuthService(
	users repository.UserRepository,
	partners repository.FoodPartnerRepository,
	store media.Store,
	mail mailer.Mailer,
	cfg AuthConfig,
) *AuthService {
	if store == nil {
		store = media.Disabled{}
	}
	if mail == nil {
		mail = mailer.Disabled{}
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaultResetTTL
	}
	return &AuthService{
		users:       users,
		partners:    partners,
		store:       store,
		mail:        mail,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		resetTTL:    cfg.ResetTokenTTL,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

// emailTaken reports whether lookup found an account. Lookup failures other
// than a missing record are returned.
func emailTaken(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *AuthService) RegisterUser(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	_, lookupErr := s.users.GetByEmail(ctx, in.Email)
	taken, err := emailTaken(lookupErr)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("User already exists")
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    in.Email,
		Password: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// RegisterPartner creates a partner account. The profile image is optional.
func (s *AuthService) RegisterPartner(ctx context.Context, in RegisterPartnerInput) (*models.FoodPartner, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Image != nil && !media.Allowed(media.KindImage, in.ImageName) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	_, lookupErr := s.partners.GetByEmail(ctx, in.Email)
	taken, err := emailTaken(lookupErr)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("Food partner account already exists")
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	partner := &models.FoodPartner{
		Name:        strings.TrimSpace(in.Name),
		ContactName: strings.TrimSpace(in.ContactName),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		Email:       in.Email,
		Password:    hashed,
	}

	if in.Image != nil {
		asset, err := s.store.Upload(ctx, media.KindImage, uuid.NewString(), in.Image)
		if err != nil {
			return nil, uploadError("profile image", err)
		}
		partner.ProfileImage = asset.URL
		partner.ProfileImagePublicID = asset.PublicID
	}

	if err := s.partners.Create(ctx, partner); err != nil {
		if partner.ProfileImagePublicID != "" {
			_ = s.store.Delete(ctx, media.KindImage, partner.ProfileImagePublicID)
		}
		return nil, err
	}
	return partner, nil
}

func (s *AuthService) LoginPartner(ctx context.Context, email, password string) (*models.FoodPartner, error) {
	partner, err := s.partners.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(partner.Password), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return partner, nil
}

// account is the part of a user or partner the reset flow needs.
type account struct {
	id          uint
	name        string
	email       string
	resetHash   *string
	resetExpire *time.Time
}

type accountStore interface {
	byEmail(ctx context.Context, email string) (*account, error)
	byID(ctx context.Context, id uint) (*account, error)
	setResetToken(ctx context.Context, id uint, hash *string, expires *time.Time) error
	updatePassword(ctx context.Context, id uint, hash string) error
}

type userAccounts struct{ repo repository.UserRepository }

func (a userAccounts) byEmail(ctx context.Context, email string) (*account, error) {
	u, err := a.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &account{id: u.ID, name: u.FullName, email: u.Email, resetHash: u.ResetPasswordToken, resetExpire: u.ResetPasswordExpire}, nil
}

func (a userAccounts) byID(ctx context.Context, id uint) (*account, error) {
	u, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &account{id: u.ID, name: u.FullName, email: u.Email, resetHash: u.ResetPasswordToken, resetExpire: u.ResetPasswordExpire}, nil
}

func (a userAccounts) setResetToken(ctx context.Context, id uint, hash *string, expires *time.Time) error {
	return a.repo.SetResetToken(ctx, id, hash, expires)
}

func (a userAccounts) updatePassword(ctx context.Context, id uint, hash string) error {
	return a.repo.UpdatePassword(ctx, id, hash)
}

type partnerAccounts struct{ repo repository.FoodPartnerRepository }

func (a partnerAccounts) byEmail(ctx context.Context, email string) (*account, error) {
	p, err := a.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &account{id: p.ID, name: p.ContactName, email: p.Email, resetHash: p.ResetPasswordToken, resetExpire: p.ResetPasswordExpire}, nil
}

func (a partnerAccounts) byID(ctx context.Context, id uint) (*account, error) {
	p, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &account{id: p.ID, name: p.ContactName, email: p.Email, resetHash: p.ResetPasswordToken, resetExpire: p.ResetPasswordExpire}, nil
}

func (a partnerAccounts) setResetToken(ctx context.Context, id uint, hash *string, expires *time.Time) error {
	return a.repo.SetResetToken(ctx, id, hash, expires)
}

func (a partnerAccounts) updatePassword(ctx context.Context, id uint, hash string) error {
	return a.repo.UpdatePassword(ctx, id, hash)
}

func (s *AuthService) accounts(kind models.ActorKind) (accountStore, error) {
	switch kind {
	case models.ActorUser:
		return userAccounts{repo: s.users}, nil
	case models.ActorFoodPartner:
		return partnerAccounts{repo: s.partners}, nil
	default:
		return nil, models.NewValidationError("Unknown account type")
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *AuthService) resetLink(kind models.ActorKind, id uint, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("id", fmt.Sprint(id))
	q.Set("type", string(kind))
	return s.frontendURL + "/reset-password?" + q.Encode()
}

// ForgotPassword emails a reset link. Unknown emails succeed silently so the
// response never reveals whether an account exists. When the email cannot be
// sent the token is cleared again.
func (s *AuthService) ForgotPassword(ctx context.Context, kind models.ActorKind, email string) error {
	store, err := s.accounts(kind)
	if err != nil {
		return err
	}
	email = normalizeEmail(email)
	if email == "" {
		return models.NewValidationError("Email is required")
	}

	acct, err := store.byEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return models.NewInternalError(err)
	}
	hash := hashToken(token)
	expires := s.now().Add(s.resetTTL)
	if err := store.setResetToken(ctx, acct.id, &hash, &expires); err != nil {
		return err
	}

	msg, err := mailer.PasswordReset(acct.email, acct.name, s.resetLink(kind, acct.id, token), s.resetTTL)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "password reset email failed",
			slog.String("kind", string(kind)),
			slog.Uint64("account_id", uint64(acct.id)),
			slog.String("error", err.Error()))
		if clearErr := store.setResetToken(ctx, acct.id, nil, nil); clearErr != nil {
			middleware.Logger.ErrorContext(ctx, "reset token cleanup failed", slog.String("error", clearErr.Error()))
		}
		return models.NewUnavailableError("Email could not be sent", err)
	}
	return nil
}

// ResetPassword sets a new password when token matches the account's
// unexpired reset token. The token is single use.
func (s *AuthService) ResetPassword(ctx context.Context, kind models.ActorKind, id uint, token, password string) error {
	store, err := s.accounts(kind)
	if err != nil {
		return err
	}
	if id == 0 || token == "" {
		return models.NewValidationError("Invalid or expired reset token")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	acct, err := store.byID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewValidationError("Invalid or expired reset token")
		}
		return err
	}
	if acct.resetHash == nil || acct.resetExpire == nil || !s.now().Before(*acct.resetExpire) ||
		subtle.ConstantTimeCompare([]byte(*acct.resetHash), []byte(hashToken(token))) != 1 {
		return models.NewValidationError("Invalid or expired reset token")
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	return notFound(store.updatePassword(ctx, id, hashed), "Account", id)
}
