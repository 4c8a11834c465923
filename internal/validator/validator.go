package validator

import (
	"context"
	v10validator "github.com/go-playground/validator/v10"
	"reflect"
)

type Validator struct {
	engine Engine
}

type Engine interface {
	StructCtx(ctx context.Context, s any) error
	VarCtx(ctx context.Context, field any, tag string) error
}

func New(e Engine) *Validator {
	return &Validator{engine: e}
}

// NewDefault возвращает Validator на движке validator/v10 с зарегистрированным правилом "ean".
func NewDefault() (*Validator, error) {
	engine := v10validator.New()
	if err := engine.RegisterValidation("ean", EAN); err != nil {
		return nil, err
	}

	return New(engine), nil
}

func (v *Validator) Struct(ctx context.Context, s any) error {
	return v.engine.StructCtx(ctx, s)
}

func (v *Validator) Var(ctx context.Context, field any, tag string) error {
	return v.engine.VarCtx(ctx, field, tag)
}

// EAN проверяет контрольную цифру штрихкода GTIN (EAN-8, UPC-A, EAN-13, GTIN-14).
func EAN(fl v10validator.FieldLevel) bool {
	val := fl.Field()
	if val.Kind() != reflect.String {
		return false
	}

	return validGTIN(val.String())
}

func validGTIN(code string) bool {
	switch len(code) {
	case 8, 12, 13, 14:
	default:
		return false
	}

	sum := 0
	for i := len(code) - 2; i >= 0; i-- {
		d := int(code[i] - '0')
		if d < 0 || d > 9 {
			return false
		}

		if (len(code)-2-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}

	check := int(code[len(code)-1] - '0')
	if check < 0 || check > 9 {
		return false
	}

	return (10-sum%10)%10 == check
}
