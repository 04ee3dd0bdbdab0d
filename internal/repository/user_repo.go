package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/bubbles/internal/db"
)

// UserRepository provides data access for user accounts and profiles.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// IncrementBadge bumps the unread push badge for the given users.
func (r *UserRepository) IncrementBadge(ctx context.Context, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id IN ?", userIDs).
		UpdateColumn("badge_count", gorm.Expr("badge_count + 1")).Error
}

// Candidates lists profiles the user may decide on: opposite gender, same
// location and status, minus anyone already liked or disliked.
func (r *UserRepository) Candidates(ctx context.Context, user *db.User, excludeIDs []uint64) ([]db.User, error) {
	gender := "male"
	if user.Gender == "male" {
		gender = "female"
	}

	query := r.db.WithContext(ctx).
		Where("gender = ? AND location = ? AND status = ?", gender, user.Location, user.Status).
		Where("id <> ?", user.ID)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var candidates []db.User
	err := query.Order("id").Find(&candidates).Error
	return candidates, err
}
