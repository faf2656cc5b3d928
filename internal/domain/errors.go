package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable: источник недоступен (сеть, таймаут, не-2xx ответ).
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderFormat: ответ источника не удалось разобрать вообще.
	ErrProviderFormat = errors.New("provider format error")
)

// ErrorKind классифицирует сбой провайдера.
type ErrorKind string

const (
	ErrorKindUnavailable ErrorKind = "unavailable"
	ErrorKindFormat      ErrorKind = "format"
)

// ProviderError описывает сбой одного обращения к провайдеру.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	Operation  string
	Queue      string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	base := fmt.Sprintf("provider %s error", e.Kind)
	if e.Provider != "" {
		base = fmt.Sprintf("%s in %s", base, e.Provider)
	}
	if e.Operation != "" {
		base = fmt.Sprintf("%s during %s", base, e.Operation)
	}
	if e.Queue != "" {
		base = fmt.Sprintf("%s for queue %s", base, e.Queue)
	}
	if e.StatusCode > 0 {
		base = fmt.Sprintf("%s (status %d)", base, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is позволяет сравнивать через errors.Is с ErrProviderUnavailable и ErrProviderFormat.
func (e *ProviderError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrProviderUnavailable:
		return e.Kind == ErrorKindUnavailable
	case ErrProviderFormat:
		return e.Kind == ErrorKindFormat
	}
	return false
}

// Unavailable создаёт ошибку недоступности провайдера.
func Unavailable(provider, operation, queue string, err error) error {
	return &ProviderError{Kind: ErrorKindUnavailable, Provider: provider, Operation: operation, Queue: queue, Err: err}
}

// UnavailableStatus создаёт ошибку недоступности с HTTP-статусом.
func UnavailableStatus(provider, operation, queue string, status int) error {
	return &ProviderError{Kind: ErrorKindUnavailable, Provider: provider, Operation: operation, Queue: queue, StatusCode: status}
}

// FormatError создаёт ошибку разбора ответа.
func FormatError(provider, operation, queue string, err error) error {
	return &ProviderError{Kind: ErrorKindFormat, Provider: provider, Operation: operation, Queue: queue, Err: err}
}

// KindOf возвращает вид ошибки провайдера. Прочие ошибки считаются недоступностью.
func KindOf(err error) ErrorKind {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Kind
	}
	return ErrorKindUnavailable
}
