package session

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
)

// ErrValidation is wrapped by *ValidationError.
var ErrValidation = errors.New("validation failed")

// allowedEmailDomain matches the institutional and gmail domains accepted at sign-up.
var allowedEmailDomain = regexp.MustCompile(`(?i)@(duoc\.cl|profesor\.duoc\.cl|gmail\.com)$`)

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// RegistrationForm is the customer sign-up form.
type RegistrationForm struct {
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	Email           string       `json:"email"`
	Password        string       `json:"password"`
	ConfirmPassword string       `json:"confirm_password"`
	Address         user.Address `json:"address"`
}

// FullName joins first and last name.
func (f RegistrationForm) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName))
}

// Validate applies the sign-up rules and returns a *ValidationError listing
// every failing field, or nil.
func (f RegistrationForm) Validate() error {
	fields := make(map[string]string)

	if utf8.RuneCountInString(f.FullName()) < 5 {
		fields["name"] = "Nombre y apellido requeridos (mín. 5 caracteres)."
	}

	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		fields["email"] = "El correo es obligatorio."
	case utf8.RuneCountInString(email) > 100:
		fields["email"] = "Máximo 100 caracteres."
	case !allowedEmailDomain.MatchString(email):
		fields["email"] = "Solo dominios @duoc.cl, @profesor.duoc.cl o @gmail.com."
	}

	if n := utf8.RuneCountInString(f.Password); n < 4 || n > 10 {
		fields["password"] = "La contraseña debe tener entre 4 y 10 caracteres."
	}
	if f.Password != f.ConfirmPassword {
		fields["confirm_password"] = "Las contraseñas no coinciden."
	}

	if utf8.RuneCountInString(strings.TrimSpace(f.Address.Street)) < 5 {
		fields["street"] = "La dirección es requerida."
	}
	if strings.TrimSpace(f.Address.Region) == "" {
		fields["region"] = "La Región es requerida."
	}
	if strings.TrimSpace(f.Address.Comuna) == "" {
		fields["comuna"] = "La Comuna es requerida."
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
