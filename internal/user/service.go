package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/user/db"
)

var ErrInvalidAddress = errors.New("address requires a street and a city")

// DB is the persistence surface the user service depends on.
type DB interface {
	GetUserByID(id int64) (*models.User, error)
	GetUserBySubject(subject string) (*models.User, error)
	InsertUser(user *models.User) error
	UpdateUser(user *models.User) error
	ListAddresses(userID int64) ([]models.Address, error)
	GetAddress(id, userID int64) (*models.Address, error)
	InsertAddress(address *models.Address) error
	DeleteAddress(id, userID int64) error
}

type UserService struct {
	DB     DB
	Logger *logger.Logger
}

func NewUserService(db DB, log *logger.Logger) *UserService {
	return &UserService{DB: db, Logger: log}
}

// ResolveSubject maps a verified token subject to a local user row,
// provisioning the account on first login. Satisfies auth.UserResolver.
func (s *UserService) ResolveSubject(ctx context.Context, subject, email, name string) (int64, error) {
	if subject == "" {
		return 0, errors.New("empty token subject")
	}

	existing, err := s.DB.GetUserBySubject(subject)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		return 0, err
	}

	prefs, _ := json.Marshal(models.DefaultPreferences())
	user := &models.User{
		Subject:     subject,
		Email:       email,
		FullName:    name,
		Role:        "customer",
		Preferences: string(prefs),
		CreatedAt:   time.Now(),
	}
	if err := s.DB.InsertUser(user); err != nil {
		return 0, fmt.Errorf("failed to provision user: %w", err)
	}

	s.Logger.Info("USER", fmt.Sprintf("Provisioned user %d for subject %s", user.ID, subject))
	return user.ID, nil
}

func (s *UserService) GetProfile(userID int64) (*models.User, error) {
	return s.DB.GetUserByID(userID)
}

func (s *UserService) UpdateProfile(userID int64, fullName string) (*models.User, error) {
	user, err := s.DB.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if fullName != "" {
		user.FullName = fullName
	}
	if err := s.DB.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetPreferences returns the user's consolidated preference blob, falling
// back to defaults for empty or unreadable columns.
func (s *UserService) GetPreferences(userID int64) (models.Preferences, error) {
	user, err := s.DB.GetUserByID(userID)
	if err != nil {
		return models.Preferences{}, err
	}
	return user.ParsePreferences(), nil
}

// UpdatePreferences replaces the user's preference blob wholesale.
func (s *UserService) UpdatePreferences(userID int64, prefs models.Preferences) error {
	user, err := s.DB.GetUserByID(userID)
	if err != nil {
		return err
	}

	if prefs.FavoriteCategories == nil {
		prefs.FavoriteCategories = []string{}
	}
	if prefs.DietaryRestrictions == nil {
		prefs.DietaryRestrictions = []string{}
	}

	encoded, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	user.Preferences = string(encoded)
	return s.DB.UpdateUser(user)
}

func (s *UserService) ListAddresses(userID int64) ([]models.Address, error) {
	return s.DB.ListAddresses(userID)
}

func (s *UserService) AddAddress(userID int64, address models.Address) (*models.Address, error) {
	if address.Street == "" || address.City == "" {
		return nil, ErrInvalidAddress
	}

	address.ID = 0
	address.UserID = userID
	address.CreatedAt = time.Now()
	if err := s.DB.InsertAddress(&address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *UserService) DeleteAddress(userID, addressID int64) error {
	return s.DB.DeleteAddress(addressID, userID)
}
