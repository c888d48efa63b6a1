package entities

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	MinPasswordLength = 6
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

type User struct {
	Id        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string
	Email     string
	Phone     string
	Nickname  string
	AvatarURL string
	Bio       string
	Password  string `json:"-"`
	Role      string
}

func NewUser(username, email, password string) *User {
	now := time.Now()
	return &User{
		Id:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Username:  strings.TrimSpace(username),
		Email:     strings.TrimSpace(strings.ToLower(email)),
		Password:  password,
		Role:      RoleUser,
	}
}

func (u *User) validate() error {
	if u.Username == "" {
		return errors.New("username must not be empty")
	}
	if !usernamePattern.MatchString(u.Username) {
		return errors.New("username must be 3-32 letters, digits, '_', '.' or '-'")
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return errors.New("email is not a valid address")
		}
	}
	if u.Password == "" {
		return errors.New("password must not be empty")
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return errors.New("role must be user or admin")
	}
	if u.CreatedAt.After(u.UpdatedAt) {
		return errors.New("created_at must be before updated_at")
	}
	return nil
}

// ValidatePlainPassword checks a password before it is hashed.
func ValidatePlainPassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

func (u *User) HashPassword() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName falls back to the username when no nickname is set.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

func (u *User) Promote() {
	u.Role = RoleAdmin
	u.UpdatedAt = time.Now()
}

// ProfilePatch carries the optional fields of a profile update. Nil means unchanged.
type ProfilePatch struct {
	Nickname  *string
	Email     *string
	Phone     *string
	AvatarURL *string
	Bio       *string
}

func (u *User) UpdateProfile(p ProfilePatch) error {
	if p.Nickname != nil {
		u.Nickname = strings.TrimSpace(*p.Nickname)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(strings.ToLower(*p.Email))
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*p.AvatarURL)
	}
	if p.Bio != nil {
		u.Bio = strings.TrimSpace(*p.Bio)
	}
	u.UpdatedAt = time.Now()
	return u.validate()
}
