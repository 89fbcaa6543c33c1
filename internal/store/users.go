package store

import (
	"context"
	"errors"

	"github.com/diewo77/go-shop/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Users looks up seller accounts.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (u *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (u *Users) Exists(ctx context.Context, id uint) bool {
	var n int64
	u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n)
	return n > 0
}

// Authenticate returns the user when password matches its bcrypt hash.
func (u *Users) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := u.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Ensure creates the account if the username is free. Existing accounts keep
// their password.
func (u *Users) Ensure(ctx context.Context, username, password string) (*models.User, error) {
	existing, err := u.FindByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, Password: string(hash)}
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
