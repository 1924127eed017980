package categorizer

import (
	"errors"
	"fmt"
)

// FailureKind — тип отказа AI-пути.
type FailureKind int

const (
	// TransportFailure — сервис недоступен, таймаут или не-2xx ответ.
	TransportFailure FailureKind = iota + 1
	// SchemaFailure — ответ получен, но не соответствует ожидаемой структуре.
	SchemaFailure
	// ConfigurationFailure — нет ключа или AI-клиент не сконфигурирован.
	ConfigurationFailure
)

// String возвращает строковое представление типа отказа.
func (k FailureKind) String() string {
	switch k {
	case TransportFailure:
		return "transport"
	case SchemaFailure:
		return "schema"
	case ConfigurationFailure:
		return "configuration"
	default:
		return "unknown"
	}
}

// ClassificationError — ошибка AI-пути. Оркестратор восстанавливается
// после неё через rule-based классификатор, наружу она не выходит.
type ClassificationError struct {
	Kind FailureKind
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func transportError(err error) error {
	return &ClassificationError{Kind: TransportFailure, Err: err}
}

func schemaError(format string, args ...any) error {
	return &ClassificationError{Kind: SchemaFailure, Err: fmt.Errorf(format, args...)}
}

func configurationError(err error) error {
	return &ClassificationError{Kind: ConfigurationFailure, Err: err}
}

// KindOf возвращает тип отказа, если err содержит ClassificationError.
func KindOf(err error) (FailureKind, bool) {
	var ce *ClassificationError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// InputError — входной документ отсутствует, не читается или невалиден.
// В пакетном режиме помечает документ как проваленный, пакет продолжается.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError сообщает, вызвана ли ошибка проблемой входного документа.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
