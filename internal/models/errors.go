package models

import (
	"errors"
	"fmt"
)

// ValidationError - некорректный или выходящий за диапазон ввод
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError - нарушение контракта конечного автомата
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s from %s", e.Action, e.From)
}

// NotFoundError - неизвестный идентификатор субъекта, зоны или инцидента
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Kind, e.ID)
}

// StaleDataError - запрос пришёл до загрузки каталога зон
type StaleDataError struct {
	Reason string
}

func (e *StaleDataError) Error() string {
	return "stale data: " + e.Reason
}

var (
	// ErrCatalogNotLoaded возвращается каталогом зон до первой загрузки
	ErrCatalogNotLoaded = &StaleDataError{Reason: "zone catalog not loaded"}
	// ErrDeliveryDegraded сигнализирует подписчику, что часть событий вытеснена и нужна пересинхронизация
	ErrDeliveryDegraded = errors.New("delivery degraded: resync required")
)

// IsNotFound проверяет, является ли ошибка NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
