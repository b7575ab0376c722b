package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dkenzhebek/tgcrm-bot/internal/core/phone"
	"github.com/dkenzhebek/tgcrm-bot/internal/models"
)

type ClientRepo interface {
	// GetByPhone returns ErrNotFound when no client carries the number.
	GetByPhone(phoneNumber string) (*models.Client, error)
	// FindOrCreate returns the existing client for the phone number or
	// creates one with the given attributes. The stored phone never changes.
	FindOrCreate(phoneNumber, name, city string) (*models.Client, error)
}

type clientRepo struct {
	db *gorm.DB
}

func NewClientRepo(db *gorm.DB) ClientRepo {
	return &clientRepo{db: db}
}

func (r *clientRepo) GetByPhone(phoneNumber string) (*models.Client, error) {
	var client models.Client
	if err := r.db.Where("phone_number = ?", phoneNumber).First(&client).Error; err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (r *clientRepo) FindOrCreate(phoneNumber, name, city string) (*models.Client, error) {
	existing, err := r.GetByPhone(phoneNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	client := models.Client{
		PhoneNumber: phoneNumber,
		PhoneSuffix: phone.Suffix(phoneNumber),
		Name:        name,
		City:        city,
	}
	if err := r.db.Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}
