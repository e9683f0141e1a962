// token реализует локальную эвристику срока действия bearer-токена.
//
// Кодек читает только claim `exp` из средней части компактного JWT
// (header.payload.signature) и никогда не проверяет подпись: подпись
// валидирует бэкенд на каждом запросе к API, клиентская проверка срока —
// не граница безопасности. Любая ошибка разбора трактуется как
// "токен истёк" (fail closed), кодек не паникует и не возвращает ошибок
// наружу из IsExpired.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry — в токене отсутствует claim `exp`.
var ErrNoExpiry = errors.New("token has no exp claim")

// parser настроен без валидации claims: нужен только разбор формата.
var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// IsExpired сообщает, истёк ли срок действия токена на текущий момент.
//
// Возвращает true, если:
//   - токен не состоит из трёх base64url-сегментов или не декодируется;
//   - claim `exp` отсутствует;
//   - текущее время достигло или превысило exp (секундная гранулярность).
func IsExpired(tokenStr string) bool {
	return isExpiredAt(tokenStr, time.Now())
}

// isExpiredAt — проверка относительно произвольного момента (для тестов).
func isExpiredAt(tokenStr string, now time.Time) bool {
	exp, err := ExpiresAt(tokenStr)
	if err != nil {
		return true
	}

	return now.Unix() >= exp.Unix()
}

// ExpiresAt возвращает момент истечения токена по claim `exp`.
// Ошибка означает, что токен не разбирается или exp отсутствует.
func ExpiresAt(tokenStr string) (time.Time, error) {
	const op = "token.ExpiresAt"

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if exp == nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrNoExpiry)
	}

	return exp.Time, nil
}
