// errors.go — ошибки сервисного слоя активностей.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingID — бэкенд вернул запись без идентификатора
	// или операция вызвана с пустым идентификатором.
	ErrMissingID = errors.New("у активности нет идентификатора")
	// ErrInvalidFilter — неизвестный режим фильтрации.
	ErrInvalidFilter = errors.New("недопустимый режим фильтра")
)

// Операции коллекции активностей (лейбл op метрик и OpError.Op).
const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Ключи i18n сообщений для пользователя, по одному на операцию.
var opMessages = map[string]string{
	OpFetch:  "activities.error.fetch",
	OpCreate: "activities.error.create",
	OpUpdate: "activities.error.update",
	OpDelete: "activities.error.delete",
}

// OpError — ошибка операции коллекции. Message — фиксированный
// ключ сообщения операции, Err — исходная причина.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func newOpError(op string, err error) *OpError {
	return &OpError{Op: op, Message: opMessages[op], Err: err}
}

func (e *OpError) Error() string {
	return fmt.Sprintf("операция %s над активностями: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
