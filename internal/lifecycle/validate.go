package lifecycle

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"procurelink/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// decimal.Decimal is validated as its float value so that gt=0 and
	// required work on prices and quantities.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// QuoteTerms are the supplier-provided terms of a quote.
type QuoteTerms struct {
	TotalPrice   decimal.Decimal `json:"total_price" validate:"required,gt=0"`
	Currency     string          `json:"currency" validate:"required,iso4217"`
	LeadTimeDays int             `json:"lead_time_days" validate:"required,min=1"`
	Notes        string          `json:"notes" validate:"max=2000"`
}

// RFQInput is a new RFQ with its line items.
type RFQInput struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"required,max=5000"`
	Category    string              `json:"category" validate:"required,max=100"`
	BudgetMin   decimal.NullDecimal `json:"budget_min"`
	BudgetMax   decimal.NullDecimal `json:"budget_max"`
	Items       []RFQItemInput      `json:"items" validate:"required,min=1,dive"`
}

type RFQItemInput struct {
	Name        string              `json:"name" validate:"required,max=200"`
	SKU         string              `json:"sku" validate:"max=100"`
	Qty         decimal.Decimal     `json:"qty" validate:"required,gt=0"`
	Unit        string              `json:"unit" validate:"required,max=32"`
	TargetPrice decimal.NullDecimal `json:"target_price"`
}

// ProfileInput creates a profile. Role cannot be changed afterwards.
type ProfileInput struct {
	Role         models.Role `json:"role" validate:"required,oneof=buyer supplier"`
	OrgName      string      `json:"org_name" validate:"required,max=200"`
	ContactName  string      `json:"contact_name" validate:"max=200"`
	ContactEmail string      `json:"contact_email" validate:"required,email"`
	Phone        string      `json:"phone" validate:"max=50"`
}

// ProfileUpdate changes contact fields; nil fields are left alone.
type ProfileUpdate struct {
	Role         *models.Role `json:"role"`
	OrgName      *string      `json:"org_name" validate:"omitempty,min=1,max=200"`
	ContactName  *string      `json:"contact_name" validate:"omitempty,max=200"`
	ContactEmail *string      `json:"contact_email" validate:"omitempty,email"`
	Phone        *string      `json:"phone" validate:"omitempty,max=50"`
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the struct name from the namespace: "RFQInput.items[0].qty" -> "items[0].qty".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return "must have at least " + fe.Param() + " element(s)"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// Column bounds of the money and quantity columns: NUMERIC(14,2) and
// NUMERIC(14,3).
var (
	maxAmount = decimal.New(1, 12)
	maxQty    = decimal.New(1, 11)
)

// fieldsOf returns the field map of a validation failure, or the error itself
// when it is not one.
func fieldsOf(err error) (map[string]string, error) {
	if err == nil {
		return map[string]string{}, nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, nil
	}
	return nil, err
}

func checkScale(fields map[string]string, name string, d decimal.Decimal, places int32, limit decimal.Decimal) {
	if _, seen := fields[name]; seen {
		return
	}
	switch {
	case !d.Equal(d.Round(places)):
		fields[name] = "must have at most " + strconv.Itoa(int(places)) + " decimal places"
	case d.Abs().GreaterThanOrEqual(limit):
		fields[name] = "must be less than " + limit.String()
	}
}

func checkAmount(fields map[string]string, name string, d decimal.Decimal) {
	checkScale(fields, name, d, 2, maxAmount)
}

func validateTerms(in *QuoteTerms) error {
	fields, err := fieldsOf(validateStruct(in))
	if err != nil {
		return err
	}
	checkAmount(fields, "total_price", in.TotalPrice)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateRFQ(in *RFQInput) error {
	fields, err := fieldsOf(validateStruct(in))
	if err != nil {
		return err
	}
	if in.BudgetMin.Valid {
		if in.BudgetMin.Decimal.IsNegative() {
			fields["budget_min"] = "must not be negative"
		}
		checkAmount(fields, "budget_min", in.BudgetMin.Decimal)
	}
	if in.BudgetMax.Valid {
		if in.BudgetMax.Decimal.IsNegative() {
			fields["budget_max"] = "must not be negative"
		}
		checkAmount(fields, "budget_max", in.BudgetMax.Decimal)
	}
	if _, seen := fields["budget_max"]; !seen && in.BudgetMin.Valid && in.BudgetMax.Valid &&
		in.BudgetMin.Decimal.GreaterThan(in.BudgetMax.Decimal) {
		fields["budget_max"] = "must not be less than budget_min"
	}
	for i, it := range in.Items {
		prefix := "items[" + strconv.Itoa(i) + "]."
		checkScale(fields, prefix+"qty", it.Qty, 3, maxQty)
		if it.TargetPrice.Valid {
			if it.TargetPrice.Decimal.IsNegative() {
				fields[prefix+"target_price"] = "must not be negative"
			}
			checkAmount(fields, prefix+"target_price", it.TargetPrice.Decimal)
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
