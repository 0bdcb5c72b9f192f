package model

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleWrite indica que a linha mudou de status entre a leitura e a escrita
	ErrStaleWrite = errors.New("concurrent modification")
)

// ValidationError descreve uma regra violada em um campo (ou regra entre campos)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Message }

// ValidationErrors agrega todas as violações encontradas numa validação
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// Has informa se algum erro foi registrado para o campo
func (v ValidationErrors) Has(field, message string) bool {
	for _, e := range v {
		if e.Field == field && (message == "" || e.Message == message) {
			return true
		}
	}
	return false
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// orNil evita devolver um slice vazio embrulhado numa interface não-nil
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

const (
	MsgBlank          = "can't be blank"
	MsgNotPositive    = "must be greater than 0"
	MsgNotIncluded    = "is not included in the list"
	MsgResultTooEarly = "can only be set when the event is completed"
	MsgMustExist      = "must exist"
	MsgTooPrecise     = "must have at most 2 decimal places"
	MsgTooLarge       = "is too large"
	MsgEventUnsettled = "can only be completed after the event has a result"
)
