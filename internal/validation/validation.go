// Package validation registers the enum rules used in request bindings and
// turns binding failures into field details.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yukikurage/workforce-api/internal/models"
)

// Register adds the custom rules to v and reports fields by their json name.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]validator.Func{
		"role":            isRole,
		"rank":            isRank,
		"task_status":     isTaskStatus,
		"task_priority":   isTaskPriority,
		"task_difficulty": isTaskDifficulty,
		"json_document":   isJSONDocument,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin adds the custom rules to gin's binding validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("validation: gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

func isRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func isRank(fl validator.FieldLevel) bool {
	return models.Rank(fl.Field().String()).Valid()
}

func isTaskStatus(fl validator.FieldLevel) bool {
	return models.TaskStatus(fl.Field().String()).Valid()
}

func isTaskPriority(fl validator.FieldLevel) bool {
	return models.TaskPriority(fl.Field().String()).Valid()
}

func isTaskDifficulty(fl validator.FieldLevel) bool {
	return models.TaskDifficulty(fl.Field().String()).Valid()
}

func isJSONDocument(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8 {
		return json.Valid(field.Bytes())
	}
	return json.Valid([]byte(field.String()))
}

// FieldErrors maps each failed field to the rule it broke. It returns nil
// when err did not come from the validator.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[toSnake(fe.Field())] = rule
	}
	return fields
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
