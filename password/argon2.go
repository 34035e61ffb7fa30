package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Config holds the Argon2id cost parameters. Memory is in KiB.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (c Argon2Config) validate() error {
	switch {
	case c.Memory < 8*1024:
		return errors.New("argon2 memory must be >= 8192 KiB")
	case c.Time < 1:
		return errors.New("argon2 time must be >= 1")
	case c.Parallelism < 1:
		return errors.New("argon2 parallelism must be >= 1")
	case c.SaltLength < 16:
		return errors.New("argon2 salt length must be >= 16")
	case c.KeyLength < 16:
		return errors.New("argon2 key length must be >= 16")
	}
	return nil
}

var phcEncoding = base64.RawStdEncoding

// phc is a decoded $argon2id$ digest. The key length is implied by len(key).
type phc struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (p phc) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		phcEncoding.EncodeToString(p.salt), phcEncoding.EncodeToString(p.key))
}

func (p phc) derive(plaintext string) []byte {
	return argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
}

var errMalformedPHC = errors.New("malformed argon2id digest")

// decodePHC parses digest and rejects anything our own configuration could
// not have produced: another version, parameters below the minimums, or a
// short salt.
func decodePHC(digest string) (phc, error) {
	fields := strings.Split(digest, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != string(AlgorithmArgon2id) {
		return phc{}, errMalformedPHC
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return phc{}, errMalformedPHC
	}
	if version != argon2.Version {
		return phc{}, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var p phc
	if n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil || n != 3 {
		return phc{}, errMalformedPHC
	}
	if fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, p.threads) != fields[3] {
		return phc{}, errMalformedPHC
	}

	var err error
	if p.salt, err = decodeSegment(fields[4]); err != nil {
		return phc{}, err
	}
	if p.key, err = decodeSegment(fields[5]); err != nil {
		return phc{}, err
	}

	floor := Argon2Config{
		Memory:      p.memory,
		Time:        p.time,
		Parallelism: p.threads,
		SaltLength:  uint32(len(p.salt)),
		KeyLength:   uint32(len(p.key)),
	}
	if err := floor.validate(); err != nil {
		return phc{}, fmt.Errorf("%w: %v", errMalformedPHC, err)
	}
	return p, nil
}

// decodeSegment accepts both unpadded (PHC) and padded base64.
func decodeSegment(s string) ([]byte, error) {
	b, err := phcEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, errMalformedPHC
	}
	return b, nil
}

// argon2idScheme is the Argon2id side of the Hasher.
type argon2idScheme struct {
	config Argon2Config
}

func (s argon2idScheme) hash(plaintext string) (string, error) {
	p := phc{
		memory:  s.config.Memory,
		time:    s.config.Time,
		threads: s.config.Parallelism,
		salt:    make([]byte, s.config.SaltLength),
		key:     make([]byte, s.config.KeyLength),
	}
	if _, err := rand.Read(p.salt); err != nil {
		return "", err
	}
	p.key = p.derive(plaintext)
	return p.String(), nil
}

func (s argon2idScheme) verify(plaintext, digest string) (bool, error) {
	p, err := decodePHC(digest)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(p.derive(plaintext), p.key) == 1, nil
}

func (s argon2idScheme) needsUpgrade(digest string) (bool, error) {
	p, err := decodePHC(digest)
	if err != nil {
		return false, err
	}
	weaker := p.memory < s.config.Memory || p.time < s.config.Time || p.threads < s.config.Parallelism
	return weaker || uint32(len(p.key)) != s.config.KeyLength, nil
}
