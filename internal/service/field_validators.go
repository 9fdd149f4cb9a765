package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/reference"
)

// DefaultMinimumAge 默认最低年龄
const DefaultMinimumAge = 13

const dateOfBirthLayout = "2006-01-02"

// FieldValidators 注册与资料编辑共用的字段校验，返回空串表示通过
type FieldValidators struct {
	Locale         string
	EmailRequired  bool
	MinimumAge     int
	PasswordPolicy config.PasswordPolicyConfig
	Countries      *reference.Table
	Now            func() time.Time
}

// NewFieldValidators 创建默认校验器
func NewFieldValidators(locale string) FieldValidators {
	return FieldValidators{
		Locale:        locale,
		EmailRequired: true,
		MinimumAge:    DefaultMinimumAge,
		Countries:     reference.Default(),
		Now:           time.Now,
	}
}

// WithLocale 返回指定语言的副本
func (v FieldValidators) WithLocale(locale string) FieldValidators {
	v.Locale = locale
	return v
}

func (v FieldValidators) t(key string, args ...interface{}) string {
	return i18n.Sprintf(v.Locale, key, args...)
}

func (v FieldValidators) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v FieldValidators) countries() *reference.Table {
	if v.Countries != nil {
		return v.Countries
	}
	return reference.Default()
}

// ValidateEmail 校验邮箱；EmailRequired 为 false 时允许为空
func (v FieldValidators) ValidateEmail(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if v.EmailRequired {
			return v.t("validation.email_required")
		}
		return ""
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return v.t("validation.email_invalid")
	}
	at := strings.LastIndex(value, "@")
	domain := value[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return v.t("validation.email_invalid")
	}
	return ""
}

// ValidatePasswordPresence 仅校验密码非空
func (v FieldValidators) ValidatePasswordPresence(value string) string {
	if value == "" {
		return v.t("validation.password_required")
	}
	return ""
}

// ValidatePasswordStrength 注册时按密码策略校验
func (v FieldValidators) ValidatePasswordStrength(value string) string {
	if msg := v.ValidatePasswordPresence(value); msg != "" {
		return msg
	}
	err := checkPasswordPolicy(v.PasswordPolicy, value)
	if err == nil {
		return ""
	}
	var perr passwordPolicyError
	if errors.As(err, &perr) {
		return v.t(perr.Key(), perr.Args()...)
	}
	return v.t("error.bad_request")
}

// ValidateName 姓名只允许字母
func (v FieldValidators) ValidateName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return v.t("validation.name_required")
	}
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return v.t("validation.name_letters_only")
		}
	}
	return ""
}

// ValidateCity 城市只允许字母与空格
func (v FieldValidators) ValidateCity(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return v.t("validation.city_required")
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && r != ' ' {
			return v.t("validation.city_letters_spaces")
		}
	}
	return ""
}

// ValidatePostalCode 按国家格式校验邮编，未收录的国家不做格式约束
func (v FieldValidators) ValidatePostalCode(countryCode, value string) string {
	if strings.TrimSpace(countryCode) == "" {
		return v.t("validation.country_first")
	}
	if strings.TrimSpace(value) == "" {
		return v.t("validation.postal_required")
	}
	country, ok := v.countries().Lookup(countryCode)
	if !ok || country.MatchesPostalCode(value) {
		return ""
	}
	return v.t("validation.postal_format", country.Name, country.Example)
}

// ValidateAge 按年月日计算周岁，minimumYears <= 0 时使用校验器默认值
func (v FieldValidators) ValidateAge(dateOfBirth string, minimumYears int) string {
	dateOfBirth = strings.TrimSpace(dateOfBirth)
	if dateOfBirth == "" {
		return v.t("validation.dob_required")
	}
	if minimumYears <= 0 {
		minimumYears = v.MinimumAge
	}
	if minimumYears <= 0 {
		minimumYears = DefaultMinimumAge
	}

	now := v.now()
	birth, err := time.ParseInLocation(dateOfBirthLayout, dateOfBirth, now.Location())
	if err != nil {
		return v.t("validation.dob_invalid")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if birth.After(today) {
		return v.t("validation.dob_future")
	}
	if ageOn(birth, today) < minimumYears {
		return v.t("validation.minimum_age", minimumYears)
	}
	return ""
}

func ageOn(birth, today time.Time) int {
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	return age
}

// RegistrationInput 注册表单
type RegistrationInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth string
}

// ValidateRegistration 校验注册表单，出生日期为可选项
func (v FieldValidators) ValidateRegistration(in RegistrationInput) FieldErrors {
	errs := FieldErrors{}
	errs.Add("email", v.ValidateEmail(in.Email))
	errs.Add("password", v.ValidatePasswordStrength(in.Password))
	errs.Add("first_name", v.ValidateName(in.FirstName))
	errs.Add("last_name", v.ValidateName(in.LastName))
	if strings.TrimSpace(in.DateOfBirth) != "" {
		errs.Add("date_of_birth", v.ValidateAge(in.DateOfBirth, 0))
	}
	return errs
}

// ValidateForm 按字段名校验任意表单，用于前端即时校验
func (v FieldValidators) ValidateForm(values map[string]string) FieldErrors {
	errs := FieldErrors{}
	for field, value := range values {
		switch field {
		case "email":
			errs.Add(field, v.ValidateEmail(value))
		case "password":
			errs.Add(field, v.ValidatePasswordPresence(value))
		case "new_password":
			errs.Add(field, v.ValidatePasswordStrength(value))
		case "first_name", "last_name", "name":
			errs.Add(field, v.ValidateName(value))
		case "city":
			errs.Add(field, v.ValidateCity(value))
		case "postal_code":
			errs.Add(field, v.ValidatePostalCode(values["country"], value))
		case "date_of_birth":
			errs.Add(field, v.ValidateAge(value, 0))
		}
	}
	return errs
}
