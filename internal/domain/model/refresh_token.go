package model

import "time"

// DBに保存する長命トークン。値そのものが一意キー。
type RefreshToken struct {
	Token     string    `json:"-" gorm:"primaryKey"`
	PersonID  string    `json:"personId" gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
}
