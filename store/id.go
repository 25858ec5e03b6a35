package store

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"time"
)

const (
	idPrefix       = "img_"
	idSuffixLength = 7
	base36         = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// NewID returns "img_<unix millis>_<7 base-36 chars>". The random suffix
// comes from crypto/rand and carries about 36 bits of entropy.
func NewID(now time.Time) (string, error) {
	suffix := make([]byte, idSuffixLength)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = base36[n.Int64()]
	}
	return idPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix), nil
}

// validID reports whether id can name a payload. Anything else can never
// have been generated here and is treated as not found.
func validID(id string) bool {
	return idPattern.MatchString(id)
}

func blobName(id string) string {
	return id + ".bin"
}
