package utils

import (
	"fmt"
	netmail "net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"rango/models"
)

func ValidateEmail(email string) error {
	_, err := netmail.ParseAddress(email)

	return err
}

func ValidatePassword(password string) error {
	// Ensure password length is at least 8 characters
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	uppercase := regexp.MustCompile(`[A-Z]`)
	lowercase := regexp.MustCompile(`[a-z]`)
	digit := regexp.MustCompile(`\d`)
	specialChar := regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)

	if !uppercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !lowercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !digit.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !specialChar.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("this field is required")
	}
	if utf8.RuneCountInString(username) > models.UsernameMaxLength {
		return fmt.Errorf("ensure this value has at most %d characters", models.UsernameMaxLength)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("enter a valid username; it may contain only letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

// CleanURL prepends http:// to a non-empty URL that carries no http(s)
// scheme.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}

func ValidateURL(raw string, maxLength int) error {
	if utf8.RuneCountInString(raw) > maxLength {
		return fmt.Errorf("ensure this value has at most %d characters", maxLength)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter a valid URL")
	}
	return nil
}

// ValidateCategoryForm checks the category name and returns the trimmed
// name alongside any field errors.
func ValidateCategoryForm(name string) (string, models.FormErrors) {
	errs := models.FormErrors{}
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		errs.Add("name", "This field is required.")
	case utf8.RuneCountInString(name) > models.CategoryNameMaxLength:
		errs.Add("name", fmt.Sprintf("Ensure this value has at most %d characters.", models.CategoryNameMaxLength))
	case Slugify(name) == "":
		errs.Add("name", "Category name must contain letters or digits.")
	}

	return name, errs
}

// ValidatePageForm checks a page submission. The returned URL is cleaned.
func ValidatePageForm(title, rawURL string) (string, string, models.FormErrors) {
	errs := models.FormErrors{}
	title = strings.TrimSpace(title)
	cleaned := CleanURL(rawURL)

	switch {
	case title == "":
		errs.Add("title", "This field is required.")
	case utf8.RuneCountInString(title) > models.PageTitleMaxLength:
		errs.Add("title", fmt.Sprintf("Ensure this value has at most %d characters.", models.PageTitleMaxLength))
	}

	if cleaned == "" {
		errs.Add("url", "This field is required.")
	} else if err := ValidateURL(cleaned, models.PageURLMaxLength); err != nil {
		errs.Add("url", capitalize(err.Error())+".")
	}

	return title, cleaned, errs
}

type RegistrationInput struct {
	Username string
	Email    string
	Password string
	Website  string
}

// ValidateRegistration checks the user and profile fields together and
// cleans the website URL in place.
func ValidateRegistration(in *RegistrationInput) models.FormErrors {
	errs := models.FormErrors{}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := ValidateUsername(in.Username); err != nil {
		errs.Add("username", capitalize(err.Error())+".")
	}
	if in.Email != "" {
		if err := ValidateEmail(in.Email); err != nil {
			errs.Add("email", "Enter a valid email address.")
		}
	}
	if in.Password == "" {
		errs.Add("password", "This field is required.")
	} else if err := ValidatePassword(in.Password); err != nil {
		errs.Add("password", capitalize(err.Error())+".")
	}

	in.Website = CleanURL(in.Website)
	if in.Website != "" {
		if err := ValidateURL(in.Website, models.PageURLMaxLength); err != nil {
			errs.Add("website", capitalize(err.Error())+".")
		}
	}

	return errs
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
