package validator

import (
	"log"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"willtank/internal/model"
	"willtank/internal/progress"
)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register validation tag %q: %v", tag, err)
		}
	}

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister("will_status", oneOfString(
		string(model.WillDraft), string(model.WillCompleted), string(model.WillLocked),
	))
	mustRegister("plan_type", oneOfString(
		string(model.PlanStarter), string(model.PlanGold), string(model.PlanPlatinum), string(model.PlanEnterprise),
	))
	mustRegister("plan_interval", oneOfString(
		string(model.IntervalMonth), string(model.IntervalYear), string(model.IntervalLifetime),
	))
	mustRegister("repeat", oneOfString(
		string(model.RepeatNever), string(model.RepeatDaily), string(model.RepeatWeekly),
		string(model.RepeatMonthly), string(model.RepeatYearly),
	))
	mustRegister("notification_type", oneOfString(
		string(model.NotificationInfo), string(model.NotificationWarning), string(model.NotificationSuccess),
	))
	mustRegister("progress_step", func(fl validator.FieldLevel) bool {
		return progress.Step(fl.Field().String()).Valid()
	})
	mustRegister("date_ymd", layout("2006-01-02"))
	mustRegister("time_hm", layout("15:04"))

	// decimal.Decimal fields arrive here as strings via the custom type func.
	mustRegister("percentage", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
	})
}

func oneOfString(allowed ...string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

func layout(l string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(l, fl.Field().String())
		return err == nil
	}
}
