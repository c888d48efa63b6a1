package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userEntity := user.GetUser()

	// Hash password before saving
	if err := userEntity.HashPassword(); err != nil {
		return nil, err
	}

	userModel := toUserModel(userEntity)
	if err := r.db.WithContext(ctx).Create(&userModel).Error; err != nil {
		return nil, translate(err)
	}

	// Read back the created user to ensure data integrity
	return r.FindById(ctx, userEntity.Id)
}

func (r *UserRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, "username = ?", strings.TrimSpace(username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return r.findOne(ctx, "email = ?", email)
}

// FindByCredentials accepts either the username or the email as login.
func (r *UserRepository) FindByCredentials(ctx context.Context, login string) (*entities.User, error) {
	user, err := r.FindByUsername(ctx, login)
	if err != nil || user != nil {
		return user, err
	}
	if strings.Contains(login, "@") {
		return r.FindByEmail(ctx, login)
	}
	return nil, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userEntity := user.GetUser()
	userModel := toUserModel(userEntity)

	err := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", userEntity.Id).
		Select("email", "phone", "nickname", "avatar_url", "bio", "role", "updated_at").
		Updates(&userModel).Error
	if err != nil {
		return nil, translate(err)
	}

	// Read back the updated user to ensure data integrity
	return r.FindById(ctx, userEntity.Id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, keyword string, page repositories.Page) ([]*entities.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&UserModel{})
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		like := "%" + strings.ToLower(keyword) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(nickname) LIKE ?", like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []UserModel
	if err := q.Order("created_at DESC").Order("id").Offset(page.Offset()).Limit(page.Size).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*entities.User, 0, len(models))
	for i := range models {
		users = append(users, r.mapToEntity(&models[i]))
	}
	return users, total, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id).Error
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*entities.User, error) {
	var userModel UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&userModel), nil
}

func toUserModel(u *entities.User) UserModel {
	var email *string
	if u.Email != "" {
		e := u.Email
		email = &e
	}
	return UserModel{
		Id:        u.Id,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		Username:  u.Username,
		Email:     email,
		Phone:     u.Phone,
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
		Bio:       u.Bio,
		Password:  u.Password,
		Role:      u.Role,
	}
}

func (r *UserRepository) mapToEntity(userModel *UserModel) *entities.User {
	user := &entities.User{
		Id:        userModel.Id,
		CreatedAt: userModel.CreatedAt,
		UpdatedAt: userModel.UpdatedAt,
		Username:  userModel.Username,
		Phone:     userModel.Phone,
		Nickname:  userModel.Nickname,
		AvatarURL: userModel.AvatarURL,
		Bio:       userModel.Bio,
		Password:  userModel.Password,
		Role:      userModel.Role,
	}
	if userModel.Email != nil {
		user.Email = *userModel.Email
	}
	return user
}
