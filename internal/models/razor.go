package models

import "time"

// Razor запись коллекции бритв пользователя.
type Razor struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"-"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DummyRazor используется для приёма данных новой бритвы из JSON-запроса.
type DummyRazor struct {
	Name    string `json:"name" validate:"required"`
	Brand   string `json:"brand"`
	Comment string `json:"comment"`
}
