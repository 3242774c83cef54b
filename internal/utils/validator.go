package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// InitValidator 初始化验证器
func InitValidator() {
	validate = validator.New()

	// 注册自定义验证函数
	validate.RegisterValidation("username", validateUsername)
}

// GetValidator 获取验证器实例
func GetValidator() *validator.Validate {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// validateUsername 验证用户名
func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()
	if len(username) < 3 || len(username) > 50 {
		return false
	}
	matched, _ := regexp.MatchString("^[a-zA-Z0-9_]+$", username)
	return matched
}

// ValidateStruct 验证结构体
func ValidateStruct(s interface{}) error {
	v := GetValidator()
	if err := v.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError 格式化验证错误
func formatValidationError(err error) error {
	var messages []string

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			var message string
			switch tag {
			case "required":
				message = fmt.Sprintf("%s是必填字段", field)
			case "min":
				message = fmt.Sprintf("%s长度不能小于%s", field, param)
			case "max":
				message = fmt.Sprintf("%s长度不能大于%s", field, param)
			case "oneof":
				message = fmt.Sprintf("%s必须是以下值之一: %s", field, param)
			case "username":
				message = fmt.Sprintf("%s只能包含字母、数字和下划线，长度3-50", field)
			default:
				message = fmt.Sprintf("%s验证失败: %s", field, tag)
			}

			messages = append(messages, message)
		}
	}

	if len(messages) > 0 {
		return fmt.Errorf("%s", strings.Join(messages, "; "))
	}

	return err
}
