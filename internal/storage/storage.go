package storage

import (
	"errors"

	"chatboard/backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already taken")
)

// Storage is the durable-store surface. Implemented by Service over
// PostgreSQL; mocked in handler and worker tests.
type Storage interface {
	CreateUser(user *models.User, password string) error
	VerifyUser(username, password string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetAllUsers() ([]models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id string) (*models.User, error)
	CountUsers() (int64, error)

	SaveMessage(msg *models.ChatMessage) error
	GetRecentMessages(limit int) ([]models.ChatMessage, error)
	DeleteMessage(id uint) error
}

type Service struct {
	DB *gorm.DB
}

func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// CreateUser hashes the password and inserts the account. The uniqueness
// check races with concurrent registrations; the unique index is the
// backstop.
func (s *Service) CreateUser(user *models.User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	var count int64
	if err := s.DB.Model(&models.User{}).
		Where("username = ?", user.Username).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserExists
	}

	return s.DB.Create(user).Error
}

// VerifyUser checks the password against the stored hash. Unknown user and
// wrong password collapse into the same error so login responses cannot be
// used to enumerate accounts.
func (s *Service) VerifyUser(username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetAllUsers() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) UpdateUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// DeleteUser removes the account and returns the deleted row so the caller
// can run the ephemeral-state cascade (message counter, presence).
func (s *Service) DeleteUser(id string) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Delete(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) CountUsers() (int64, error) {
	var count int64
	err := s.DB.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (s *Service) SaveMessage(msg *models.ChatMessage) error {
	return s.DB.Create(msg).Error
}

func (s *Service) GetRecentMessages(limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.DB.Order("created_at desc").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Oldest first for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *Service) DeleteMessage(id uint) error {
	return s.DB.Delete(&models.ChatMessage{}, id).Error
}
