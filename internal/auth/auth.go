package auth

import (
	"crypto/rsa"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/leave-management/internal"
)

// Claims is the token shape issued by the identity service. Only the
// employee id and role matter to the leave engine.
type Claims struct {
	EmployeeID int64  `json:"employee_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates externally issued RS256 tokens. This service never
// issues tokens; authentication belongs to the identity collaborator.
type Verifier struct {
	publicKey *rsa.PublicKey
}

func NewVerifier(publicKey *rsa.PublicKey) *Verifier {
	return &Verifier{publicKey: publicKey}
}

func (v *Verifier) Verify(tokenString string) (internal.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.publicKey, nil
	})
	if err != nil || !token.Valid {
		return internal.Actor{}, internal.ErrInvalidToken
	}
	if claims.EmployeeID == 0 {
		return internal.Actor{}, internal.ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = internal.RoleEmployee
	}

	return internal.Actor{EmployeeID: claims.EmployeeID, Role: role}, nil
}
