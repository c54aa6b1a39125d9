package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
)

func validForm() RegistrationForm {
	return RegistrationForm{
		FirstName:       "Ana",
		LastName:        "Pérez",
		Email:           "ana.perez@duoc.cl",
		Password:        "peluche1",
		ConfirmPassword: "peluche1",
		Address:         user.Address{Street: "Av. Siempre Viva 742", Region: "Región Metropolitana", Comuna: "Maipú"},
	}
}

func TestRegistrationForm_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(f *RegistrationForm)
		wantField string
	}{
		{"valid", func(f *RegistrationForm) {}, ""},
		{"profesor domain", func(f *RegistrationForm) { f.Email = "jefe@profesor.duoc.cl" }, ""},
		{"gmail upper case", func(f *RegistrationForm) { f.Email = "ANA@GMAIL.COM" }, ""},
		{"short name", func(f *RegistrationForm) { f.FirstName, f.LastName = "Al", "" }, "name"},
		{"missing email", func(f *RegistrationForm) { f.Email = "" }, "email"},
		{"long email", func(f *RegistrationForm) { f.Email = strings.Repeat("a", 95) + "@gmail.com" }, "email"},
		{"foreign domain", func(f *RegistrationForm) { f.Email = "ana@hotmail.com" }, "email"},
		{"short password", func(f *RegistrationForm) { f.Password, f.ConfirmPassword = "abc", "abc" }, "password"},
		{"long password", func(f *RegistrationForm) { f.Password, f.ConfirmPassword = "abcdefghijk", "abcdefghijk" }, "password"},
		{"mismatched confirmation", func(f *RegistrationForm) { f.ConfirmPassword = "otra1" }, "confirm_password"},
		{"short street", func(f *RegistrationForm) { f.Address.Street = "Av 1" }, "street"},
		{"missing region", func(f *RegistrationForm) { f.Address.Region = " " }, "region"},
		{"missing comuna", func(f *RegistrationForm) { f.Address.Comuna = "" }, "comuna"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			err := f.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("ValidationError should wrap ErrValidation")
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("Fields = %v, want key %q", verr.Fields, tt.wantField)
			}
		})
	}
}

func TestRegistrationForm_ReportsEveryField(t *testing.T) {
	err := RegistrationForm{}.Validate()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	for _, field := range []string{"name", "email", "password", "street", "region", "comuna"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing field %q in %v", field, verr.Fields)
		}
	}
}
