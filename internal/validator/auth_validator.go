package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

const (
	minHandleLen   = 3
	maxHandleLen   = 80
	maxEmailLen    = 120
	minPasswordLen = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ユーザー名はNFCに揃えて比較する（見た目が同じ別表記を同一扱い）
func NormalizeHandle(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// サインアップの入力を検証（正規化済みの値を渡す）
func ValidateRegister(username, email, password string) error {
	if err := validateHandle(username); err != nil {
		return err
	}

	// 必須チェック
	if email == "" {
		return invalid("email is required")
	}
	// email形式
	if len(email) > maxEmailLen || !emailPattern.MatchString(email) {
		return invalid("invalid email")
	}

	// パスワード最低文字数
	if utf8.RuneCountInString(password) < minPasswordLen {
		return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if isWeakPassword(password) {
		return invalid("password is too weak")
	}
	return nil
}

// ログインの入力を検証
func ValidateLogin(username, password string) error {
	if username == "" || password == "" {
		return invalid("username and password are required")
	}
	return nil
}

func validateHandle(h string) error {
	n := utf8.RuneCountInString(h)
	if n < minHandleLen || n > maxHandleLen {
		return invalid(fmt.Sprintf("username must be %d-%d characters", minHandleLen, maxHandleLen))
	}
	for _, r := range h {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return invalid("username must not contain spaces")
		}
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwertyuiop":   {},
		"letmein1":     {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}
