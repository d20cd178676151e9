package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/savalagikadappa/infosys/internal/model"
)

// RegisterValidators 注册自定义校验规则，供 gin binding 使用
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("isodate", isoDate)
}

// isoDate 接受 yyyy-mm-dd 或 RFC3339 时间戳
func isoDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if _, err := time.Parse(model.DateLayout, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
