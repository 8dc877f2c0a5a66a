package ticket

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewBookingID()
		require.True(t, IsBookingID(id), id)
		require.Len(t, id, 15)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestIsBookingID(t *testing.T) {
	assert.True(t, IsBookingID("EVT0123456789AB"))
	assert.False(t, IsBookingID("EVT0123456789ab"))
	assert.False(t, IsBookingID("ABC0123456789AB"))
	assert.False(t, IsBookingID("EVT0123"))
}

func TestSignIsDeterministic(t *testing.T) {
	s, err := NewSigner("secret")
	require.NoError(t, err)

	a, err := s.Sign(7, "EVT0123456789AB")
	require.NoError(t, err)
	b, err := s.Sign(7, "EVT0123456789AB")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := s.Sign(8, "EVT0123456789AB")
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestVerify(t *testing.T) {
	s, err := NewSigner("secret")
	require.NoError(t, err)

	token, err := s.Sign(7, "EVT0123456789AB")
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.EventID)
	assert.Equal(t, "EVT0123456789AB", claims.BookingID)
	assert.Equal(t, Namespace, claims.Namespace)
}

func TestVerifyRejects(t *testing.T) {
	s, err := NewSigner("secret")
	require.NoError(t, err)
	other, err := NewSigner("another-secret")
	require.NoError(t, err)

	foreign, err := other.Sign(7, "EVT0123456789AB")
	require.NoError(t, err)

	wrongNS, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Namespace: "OTHER", EventID: 7, BookingID: "EVT0123456789AB",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Namespace: Namespace, EventID: 7, BookingID: "EVT0123456789AB",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"foreign secret":  foreign,
		"wrong namespace": wrongNS,
		"alg none":        unsigned,
		"garbage":         "abc.def.ghi",
		"empty":           "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
