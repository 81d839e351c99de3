package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxComponents  = 100000
	MaxNets        = 100000
	MaxRefLength   = 32
	MaxNetLength   = 128
	MaxValueLength = 128

	// Reference designators: letters then digits, with an optional '#'
	// prefix for virtual symbols ("#PWR01")
	refDesPattern = regexp.MustCompile(`^#?[A-Za-z]+[0-9]+$`)
)

func init() {
	validate = validator.New()
}

// ConnectionRequest is one pin attachment inside a net request
type ConnectionRequest struct {
	Ref string `json:"ref" validate:"required,min=1,max=32"`
	Pin string `json:"pin" validate:"required,min=1,max=16"`
}

// ComponentRequest represents one component in an uploaded snapshot
type ComponentRequest struct {
	RefDes    string `json:"refDes" validate:"required,min=1,max=32"`
	Value     string `json:"value" validate:"omitempty,max=128"`
	Footprint string `json:"footprint" validate:"omitempty,max=128"`
}

// NetRequest represents one net in an uploaded snapshot
type NetRequest struct {
	Name        string              `json:"name" validate:"required,min=1,max=128"`
	Connections []ConnectionRequest `json:"connections" validate:"omitempty,dive"`
}

// SnapshotRequest is a schematic snapshot submitted for analysis
type SnapshotRequest struct {
	Name       string             `json:"name" validate:"omitempty,max=128"`
	Components []ComponentRequest `json:"components" validate:"required,min=1,dive"`
	Nets       []NetRequest       `json:"nets" validate:"omitempty,dive"`
}

// ValidateSnapshot validates a snapshot before it enters the pipeline
func ValidateSnapshot(req *SnapshotRequest) error {
	if req == nil {
		return errors.New("snapshot request cannot be nil")
	}

	// Validate using struct tags
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if len(req.Components) > MaxComponents {
		return fmt.Errorf("Components: maximum %d components allowed, got %d", MaxComponents, len(req.Components))
	}
	if len(req.Nets) > MaxNets {
		return fmt.Errorf("Nets: maximum %d nets allowed, got %d", MaxNets, len(req.Nets))
	}

	seen := make(map[string]bool, len(req.Components))
	for _, c := range req.Components {
		if err := ValidateRefDes(c.RefDes); err != nil {
			return fmt.Errorf("Components: %w", err)
		}
		if seen[c.RefDes] {
			return fmt.Errorf("Components: duplicate reference '%s'", c.RefDes)
		}
		seen[c.RefDes] = true
	}

	// every connection must point at a declared component
	for _, n := range req.Nets {
		for _, conn := range n.Connections {
			if !seen[conn.Ref] {
				return fmt.Errorf("Nets: net '%s' references undeclared component '%s'", n.Name, conn.Ref)
			}
		}
	}

	return nil
}

// ValidateRefDes validates a reference designator
func ValidateRefDes(ref string) error {
	if ref == "" {
		return errors.New("reference designator cannot be empty")
	}
	if len(ref) > MaxRefLength {
		return fmt.Errorf("reference '%s' exceeds maximum length of %d characters", ref, MaxRefLength)
	}
	if !refDesPattern.MatchString(ref) {
		return fmt.Errorf("reference '%s' is invalid (letters followed by digits, optional '#' prefix)", ref)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "dive":
			// For array elements
			return fmt.Errorf("%s: invalid element in array", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
