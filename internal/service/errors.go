package service

import "errors"

// Ошибки уровня хранилища. Объявлены здесь, рядом с интерфейсами
// репозиториев, чтобы реализации могли их возвращать, не замыкая
// импорты обратно на сервисный слой.
var (
	// ErrNotFound возвращается, когда запрошенная запись отсутствует в бд
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUsername возвращается при нарушении уникальности имени пользователя
	ErrDuplicateUsername = errors.New("username already exists")
)
