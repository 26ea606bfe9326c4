package models

import (
	"time"
)

type EmergencyContact struct {
	ID           string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	UserID       string    `json:"user_id" bson:"user_id" gorm:"index;size:64;not null"`
	Name         string    `json:"name" bson:"name" gorm:"size:128;not null"`
	PhoneNumber  string    `json:"phone_number" bson:"phone_number" gorm:"size:32;not null"`
	Relationship string    `json:"relationship" bson:"relationship" gorm:"size:64"`
	IsEmergency  bool      `json:"is_emergency" bson:"is_emergency" gorm:"index"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (EmergencyContact) TableName() string {
	return "contacts"
}

type CreateContactRequest struct {
	Name         string `json:"name" binding:"required,max=128"`
	PhoneNumber  string `json:"phone_number" binding:"required,phone_number"`
	Relationship string `json:"relationship" binding:"max=64"`
	IsEmergency  bool   `json:"is_emergency"`
}

type ToggleEmergencyRequest struct {
	IsEmergency *bool `json:"is_emergency" binding:"required"`
}
