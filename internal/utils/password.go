package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var errMalformedHash = errors.New("hash invalide")

// argonParams décrit un hash argon2id encodé au format PHC.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// currentArgon sont les paramètres des nouveaux hash (32 Mo, 1 passe, 4 threads).
var currentArgon = argonParams{memory: 32 * 1024, time: 1, threads: 4, keyLen: 32}

const saltLen = 16

func (p argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

// decodeArgon découpe "$argon2id$v=19$m=..,t=..,p=..$sel$clé".
func decodeArgon(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, errors.Wrap(err, "paramètres argon2")
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return p, nil, nil, errors.Wrap(err, "sel argon2")
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil {
		return p, nil, nil, errors.Wrap(err, "clé argon2")
	}
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}

// HashPassword retourne le hash argon2id encodé d'un mot de passe.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "génération du sel")
	}
	p := currentArgon
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return p.encode(salt, key), nil
}

// VerifyPassword compare un mot de passe à un hash argon2id ou bcrypt (comptes importés).
// Une erreur signale un hash illisible, pas un mauvais mot de passe.
func VerifyPassword(password, encodedHash string) (bool, error) {
	if IsBcryptHash(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	p, salt, key, err := decodeArgon(encodedHash)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// CheckPassword renvoie true si le mot de passe correspond; un hash illisible vaut un refus.
func CheckPassword(password, encodedHash string) bool {
	ok, err := VerifyPassword(password, encodedHash)
	return err == nil && ok
}

// NeedsRehash: bcrypt, ou argon2id avec d'autres paramètres que currentArgon.
func NeedsRehash(encodedHash string) bool {
	if IsBcryptHash(encodedHash) {
		return true
	}
	p, _, _, err := decodeArgon(encodedHash)
	return err == nil && p != currentArgon
}

func IsArgon2Hash(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}

func IsBcryptHash(hash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}
