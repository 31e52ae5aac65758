package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProfileName имя, которое получает профиль при регистрации.
const DefaultProfileName = "New user"

// Profile один профиль на пользователя, ID совпадает с UUID учётной записи.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FullName  *string   `json:"full_name"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// DummyProfile тело запроса на изменение профиля.
type DummyProfile struct {
	FullName *string `json:"full_name" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
}
