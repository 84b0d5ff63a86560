// Package validation はGinのバインディングに独自のバリデーションを登録します。
package validation

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"go-taskboard/backend/internal/models"
)

// Now はバリデーション時の現在時刻です。テストで差し替えられます。
var Now = time.Now

var registerOnce sync.Once
var registerErr error

// Register は future タグと models.Date の型変換をGinのバリデーターに登録します。
// 複数回呼んでも登録は1度だけです。
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = RegisterOn(v)
	})
	return registerErr
}

// RegisterOn は v に future タグと models.Date の型変換を登録します。
func RegisterOn(v *validator.Validate) error {
	// models.Date は time.Time として検証する
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(models.Date); ok {
			return d.Time
		}
		return nil
	}, models.Date{})

	return v.RegisterValidation("future", isFuture)
}

// isFuture は日付が今日より後 (翌日以降) であることを検証します。
func isFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return models.DateOf(t).IsFutureOf(Now())
}
