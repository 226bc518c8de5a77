package models

import (
	"errors"
	"fmt"
)

// Виды ошибок для errors.Is
var (
	ErrValidation = errors.New("validation error")
	ErrOverlap    = errors.New("period overlaps an existing one")
	ErrBlocked    = errors.New("attendance blocked by calendar exception")
	ErrDuplicate  = errors.New("duplicate scan")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError некорректные даты или отсутствующие поля
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OverlapError конфликт с существующим периодом того же сотрудника
type OverlapError struct {
	Kind     string
	Existing DateRange
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s period overlaps existing period %s", e.Kind, e.Existing)
}

func (e *OverlapError) Is(target error) bool { return target == ErrOverlap }

// BlockedError праздник, отпуск или командировка
type BlockedError struct {
	Action string
	Reason string
}

func (e *BlockedError) Error() string { return e.Reason }

func (e *BlockedError) Is(target error) bool { return target == ErrBlocked }

// DuplicateError сканирование вне допустимого окна
type DuplicateError struct {
	Action string
	Reason string
}

func (e *DuplicateError) Error() string { return e.Reason }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// NotFoundError неизвестный сотрудник или запись
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError ошибка ввода-вывода хранилища. Единственный вид, который стоит повторять.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Retryable всегда true: сбой ввода-вывода может быть временным
func (e *StorageError) Retryable() bool { return true }

// NewStorageError оборачивает ошибку хранилища; nil остается nil
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsRetryable сообщает, имеет ли смысл повторить запрос
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage)
}
