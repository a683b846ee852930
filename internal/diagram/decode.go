package diagram

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDiagram marks caller-input errors: the diagram cannot be evaluated at all.
var ErrInvalidDiagram = errors.New("invalid diagram")

var (
	shapeOnce     sync.Once
	shapeValidate *validator.Validate
)

func validate() *validator.Validate {
	shapeOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
			return Direction(fl.Field().String()).Known()
		}); err != nil {
			panic(fmt.Sprintf("diagram: register direction validator: %v", err))
		}
		shapeValidate = v
	})
	return shapeValidate
}

// Decode parses diagram JSON and checks its shape.
func Decode(data []byte) (*Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDiagram, err)
	}
	if err := CheckShape(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CheckShape rejects diagrams that cannot be evaluated: missing nodes or edges
// arrays, unknown interface directions, negative widths.
func CheckShape(d *Diagram) error {
	if d == nil {
		return fmt.Errorf("%w: diagram is nil", ErrInvalidDiagram)
	}
	err := validate().Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDiagram, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDiagram, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Diagram.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "direction":
		return fmt.Sprintf("%s: unknown direction %q", field, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
