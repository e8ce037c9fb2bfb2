package report

import (
	"errors"
	"fmt"
	"strings"
)

// Persona selects the register of a generated report.
type Persona int

const (
	// Doctor addresses a medical specialist.
	Doctor Persona = iota + 1

	// Patient addresses the patient in plain language.
	Patient
)

// ErrUnknownPersona is returned by ParsePersona for unrecognized input.
var ErrUnknownPersona = errors.New("unknown persona")

// String returns the canonical upper-case name.
func (p Persona) String() string {
	switch p {
	case Doctor:
		return "DOCTOR"
	case Patient:
		return "PATIENT"
	default:
		return fmt.Sprintf("Persona(%d)", int(p))
	}
}

// Valid reports whether p is one of the declared personas.
func (p Persona) Valid() bool {
	_, ok := templates[p]
	return ok
}

// Personas lists every declared persona.
func Personas() []Persona {
	return []Persona{Doctor, Patient}
}

// ParsePersona accepts "doctor", "patient" and the shorthands "d" and "p" in
// any case.
func ParsePersona(s string) (Persona, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DOCTOR", "D":
		return Doctor, nil
	case "PATIENT", "P":
		return Patient, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected DOCTOR or PATIENT)", ErrUnknownPersona, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Persona) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPersona, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Persona) UnmarshalText(text []byte) error {
	parsed, err := ParsePersona(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
