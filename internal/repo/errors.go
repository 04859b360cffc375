package repo

import "errors"

var (
	// ErrNoDSN — строка подключения к БД не задана.
	ErrNoDSN = errors.New("database url is not set")

	// ErrNilExecution — попытка сохранить пустое выполнение.
	ErrNilExecution = errors.New("execution is nil")
)
