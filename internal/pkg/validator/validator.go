// validator — общие правила проверки входных данных на go-playground/validator.
//
// Помимо стандартных тегов регистрируется тег "email_tld": адрес должен
// оканчиваться доменом верхнего уровня из двух и более латинских букв
// (user@host.tld). Тег "email" сам по себе пропускает адреса вида user@localhost.
package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailTLD = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Ошибка возможна только при пустом имени тега или nil-функции.
	_ = v.RegisterValidation("email_tld", func(fl validator.FieldLevel) bool {
		return emailTLD.MatchString(fl.Field().String())
	})

	return v
}

// Email сообщает, является ли s корректным адресом (грамматика + TLD).
func Email(s string) bool {
	return validate.Var(s, "required,email,email_tld") == nil
}

// Validate проверяет структуру по тегам validate.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidationError оборачивает validator.ValidationErrors в читаемое сообщение.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", err.Field(), msgForTag(err)))
	}
	return strings.Join(msgs, "; ")
}

// Fields возвращает сообщения об ошибках по именам полей.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[err.Field()] = msgForTag(err)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email", "email_tld":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate читает JSON из тела запроса в dst и проверяет его.
// Неизвестные поля отвергаются.
func DecodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}

	return Validate(dst)
}
