// Package cookies implements the signed refresh-token cookie contract:
// the value travels in an httpOnly cookie and a companion "<name>.sig"
// cookie carries an HMAC of name=value. Two keys are configured so the
// signing key can be rotated: new signatures use the first key, while
// verification accepts either.
package cookies

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var ErrInvalidSignature = errors.New("cookie signature mismatch")

// Codec signs and verifies cookie values.
type Codec struct {
	keys [][]byte
	path string
}

// NewCodec builds a codec from the configured signing keys. Empty keys are
// skipped; at least one key is required by config validation.
func NewCodec(keys ...string) *Codec {
	c := &Codec{path: "/"}
	for _, k := range keys {
		if k != "" {
			c.keys = append(c.keys, []byte(k))
		}
	}
	return c
}

func sigName(name string) string { return name + ".sig" }

func (c *Codec) sign(key []byte, name, value string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(name + "=" + value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Set writes the value cookie and its signature cookie. Using a fixed name
// gives overwrite semantics: a second login replaces the pair instead of
// stacking cookies.
func (c *Codec) Set(ctx *gin.Context, name, value string, expires time.Time, secure bool) {
	sig := c.sign(c.keys[0], name, value)
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
	})
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     sigName(name),
		Value:    sig,
		Path:     c.path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
	})
}

// Get returns the verified cookie value. A missing cookie yields
// http.ErrNoCookie; a bad or absent signature yields ErrInvalidSignature.
func (c *Codec) Get(ctx *gin.Context, name string) (string, error) {
	value, err := ctx.Cookie(name)
	if err != nil {
		return "", err
	}
	sig, err := ctx.Cookie(sigName(name))
	if err != nil {
		return "", ErrInvalidSignature
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrInvalidSignature
	}
	for _, key := range c.keys {
		want, _ := base64.RawURLEncoding.DecodeString(c.sign(key, name, value))
		if hmac.Equal(got, want) {
			return value, nil
		}
	}
	return "", ErrInvalidSignature
}

// Clear expires the cookie pair immediately.
func (c *Codec) Clear(ctx *gin.Context, name string, secure bool) {
	past := time.Unix(0, 0)
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name: name, Value: "", Path: c.path, Expires: past, MaxAge: -1, HttpOnly: true, Secure: secure,
	})
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name: sigName(name), Value: "", Path: c.path, Expires: past, MaxAge: -1, HttpOnly: true, Secure: secure,
	})
}
