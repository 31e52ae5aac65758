// Package models содержит доменные структуры магазина: учётную запись,
// профиль, каталог (категории и товары), подписку и продажи с позициями.
// Структуры используются в бизнес-логике, хранилище и HTTP-слое.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли учётной записи.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет учётную запись (идентичность) пользователя.
// Удаление учётной записи каскадно удаляет все принадлежащие ей строки.
type User struct {
	UUID         uuid.UUID // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	CreatedAt    time.Time
}
