// Package cardlink issues the signed URLs handed to users for card editing
// and card payment. The embedded token carries the store-side key and a
// 24-hour expiry; the card site enforces the expiry.
package cardlink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenValidity = 24 * time.Hour

type Signer struct {
	secret  []byte
	baseURL string
}

func NewSigner(secret, baseURL string) *Signer {
	return &Signer{secret: []byte(secret), baseURL: baseURL}
}

func (s *Signer) sign(key string) (string, error) {
	claims := jwt.MapClaims{
		"key": key,
		"exp": time.Now().Add(tokenValidity).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// EditLink builds the card-edit URL for a freshly rotated edit key.
func (s *Signer) EditLink(key string) (string, error) {
	signed, err := s.sign(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/edit?token=%s", s.baseURL, signed), nil
}

// PayLink builds the card-payment URL for a committed transaction key.
func (s *Signer) PayLink(key string) (string, error) {
	signed, err := s.sign(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/card?token=%s", s.baseURL, signed), nil
}

// ParseKey validates a token and returns the embedded key.
func (s *Signer) ParseKey(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	key, _ := claims["key"].(string)
	if key == "" {
		return "", errors.New("missing key claim")
	}
	return key, nil
}
