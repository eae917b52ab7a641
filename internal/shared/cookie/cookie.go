// Package cookie stores small values in tamper-proof, encrypted cookies.
package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxCookieSize is the browser limit for a single Set-Cookie value
const maxCookieSize = 4096

var (
	ErrValueTooLong = errors.New("cookie value too long")
	ErrInvalidValue = errors.New("invalid cookie value")
)

// Options controls the attributes of cookies written by Write. A positive MaxAge is also
// sealed into the value and enforced by Read, whatever the client does with the cookie.
type Options struct {
	Secure bool
	MaxAge time.Duration
}

// now is replaced in tests
var now = time.Now

func newGCM(secret []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// encrypt seals "{name}:{expires}:{value}" with AES-GCM. Binding the cookie name into the
// plaintext stops a value issued under one cookie name being replayed under another.
// expires is in unix nanoseconds; 0 never expires.
func encrypt(name, value string, expires int64, secret []byte) (string, error) {
	aesGCM, err := newGCM(secret)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// ':' is not a valid cookie-name character, so it is a safe separator
	plaintext := name + ":" + strconv.FormatInt(expires, 10) + ":" + value
	sealed := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)

	encoded := base64.URLEncoding.EncodeToString(sealed)
	if len(name)+len(encoded)+1 > maxCookieSize {
		return "", ErrValueTooLong
	}
	return encoded, nil
}

func decrypt(name, encoded string, secret []byte) (string, error) {
	sealed, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidValue
	}

	aesGCM, err := newGCM(secret)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(sealed) < nonceSize {
		return "", ErrInvalidValue
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidValue
	}

	actualName, rest, ok := strings.Cut(string(plaintext), ":")
	if !ok || actualName != name {
		return "", ErrInvalidValue
	}

	rawExpires, value, ok := strings.Cut(rest, ":")
	if !ok {
		return "", ErrInvalidValue
	}
	expires, err := strconv.ParseInt(rawExpires, 10, 64)
	if err != nil {
		return "", ErrInvalidValue
	}
	if expires != 0 && now().UnixNano() > expires {
		return "", ErrInvalidValue
	}
	return value, nil
}

// Read returns the decrypted value of the named cookie. It returns
// http.ErrNoCookie when the cookie is absent and ErrInvalidValue when it was tampered with
// or has expired.
func Read(r *http.Request, name string, secret []byte) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return decrypt(name, c.Value, secret)
}

// Write encrypts value into the named cookie.
func Write(w http.ResponseWriter, name, value string, secret []byte, opts Options) error {
	var expires int64
	if opts.MaxAge > 0 {
		expires = now().Add(opts.MaxAge).UnixNano()
	}

	encrypted, err := encrypt(name, value, expires, secret)
	if err != nil {
		return err
	}

	c := &http.Cookie{
		Name:     name,
		Value:    encrypted,
		HttpOnly: true,
		// Send cookie to all routes in the app
		Path:     "/",
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.MaxAge > 0 {
		c.MaxAge = int(opts.MaxAge.Seconds())
	}
	http.SetCookie(w, c)
	return nil
}

// Expire tells the client to drop the named cookie.
func Expire(w http.ResponseWriter, name string, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
