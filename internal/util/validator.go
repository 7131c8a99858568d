package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}

// ValidateCPF confere tamanho e dígitos verificadores do CPF.
func ValidateCPF(cpf string) error {
	digits := onlyDigits(cpf)
	if len(digits) != 11 || allSame(digits) {
		return errors.New("cpf inválido")
	}
	if digits[9] != cpfDigit(digits[:9], 10) || digits[10] != cpfDigit(digits[:10], 11) {
		return errors.New("cpf inválido")
	}
	return nil
}

// ValidateCNPJ confere tamanho e dígitos verificadores do CNPJ.
func ValidateCNPJ(cnpj string) error {
	digits := onlyDigits(cnpj)
	if len(digits) != 14 || allSame(digits) {
		return errors.New("cnpj inválido")
	}
	if digits[12] != cnpjDigit(digits[:12]) || digits[13] != cnpjDigit(digits[:13]) {
		return errors.New("cnpj inválido")
	}
	return nil
}

func onlyDigits(value string) []int {
	var digits []int
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	return digits
}

func allSame(digits []int) bool {
	for _, d := range digits {
		if d != digits[0] {
			return false
		}
	}
	return true
}

func cpfDigit(digits []int, weight int) int {
	sum := 0
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

func cnpjDigit(digits []int) int {
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	offset := len(weights) - len(digits)
	sum := 0
	for i, d := range digits {
		sum += d * weights[i+offset]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
