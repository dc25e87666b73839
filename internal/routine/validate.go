package routine

import (
	"errors"
	"strings"

	"github.com/rivo/uniseg"
)

var (
	ErrEmptyTitle      = errors.New("step title is empty")
	ErrEmptyIcon       = errors.New("step icon is empty")
	ErrIconTooLong     = errors.New("step icon is longer than 2 characters")
	ErrDuplicateStepID = errors.New("duplicate step id")
)

// MaxIconLength максимальная длина иконки в графемах
const MaxIconLength = 2

// ValidateStep проверяет ввод до мутации списка: сама мутация ничего не проверяет
func ValidateStep(title, icon string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(icon) == "" {
		return ErrEmptyIcon
	}
	if uniseg.GraphemeClusterCount(icon) > MaxIconLength {
		return ErrIconTooLong
	}
	return nil
}
