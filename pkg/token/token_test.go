package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// mintToken — утилита выпуска подписанного HS256-токена с заданными claims.
// Кодек подпись не проверяет, поэтому секрет произвольный.
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return signed
}

func TestIsExpired_Malformed(t *testing.T) {
	t.Parallel()

	// Всё, что не разбирается как компактный JWT, считается истёкшим.
	for _, tok := range []string{
		"",
		"garbage",
		"a.b",
		"a.b.c.d",
		"!!!.###.$$$",
		"eyJhbGciOiJIUzI1NiJ9.not-base64-json.sig",
	} {
		require.True(t, IsExpired(tok), "token %q", tok)
	}
}

func TestIsExpired_NoExpClaim(t *testing.T) {
	t.Parallel()

	tok := mintToken(t, jwt.MapClaims{"uid": "u-1"})
	require.True(t, IsExpired(tok))
}

func TestIsExpired_FutureExp(t *testing.T) {
	t.Parallel()

	tok := mintToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.False(t, IsExpired(tok))
}

func TestIsExpired_PastExp(t *testing.T) {
	t.Parallel()

	tok := mintToken(t, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	require.True(t, IsExpired(tok))
}

func TestIsExpired_ExactlyNow(t *testing.T) {
	t.Parallel()

	// Секундная гранулярность: exp == now уже считается истёкшим.
	now := time.Now()
	tok := mintToken(t, jwt.MapClaims{"exp": now.Unix()})
	require.True(t, isExpiredAt(tok, now))
}

func TestIsExpired_SignatureNotChecked(t *testing.T) {
	t.Parallel()

	// Подпись клиентом не проверяется: порча третьего сегмента
	// не влияет на чтение exp.
	tok := mintToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + ".forged-signature"

	require.False(t, IsExpired(forged))
}

func TestExpiresAt_RoundTrip(t *testing.T) {
	t.Parallel()

	want := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := mintToken(t, jwt.MapClaims{"exp": want.Unix()})

	got, err := ExpiresAt(tok)
	require.NoError(t, err)
	require.Equal(t, want.Unix(), got.Unix())
}

func TestExpiresAt_NoExp(t *testing.T) {
	t.Parallel()

	tok := mintToken(t, jwt.MapClaims{"uid": "u-1"})

	_, err := ExpiresAt(tok)
	require.ErrorIs(t, err, ErrNoExpiry)
}
