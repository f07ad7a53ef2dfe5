package images

import (
	"strconv"
	"strings"
	"time"

	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/id"
)

const (
	maxStemLength = 30
	tokenLength   = 6
)

// Namer generates object names. The zero value uses the wall clock and
// random tokens.
type Namer struct {
	Now   func() time.Time
	Token func() string
}

// GenerateName builds "<stem>-<unix ms>-<token>.<ext>" for title in bucket.
// The stem is the slugified title cut to 30 characters, or the bucket's
// default title when nothing survives cleaning.
func GenerateName(title, bucket string) string {
	return Namer{}.Name(title, bucket)
}

// Name is GenerateName with n's clock and token source.
func (n Namer) Name(title, bucket string) string {
	p := ProfileFor(bucket)

	stem := domain.Slugify(title)
	if len(stem) > maxStemLength {
		stem = strings.TrimRight(stem[:maxStemLength], "-")
	}
	if stem == "" {
		stem = p.DefaultTitle
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	token := randomToken
	if n.Token != nil {
		token = n.Token
	}

	return stem + "-" + strconv.FormatInt(now().UnixMilli(), 10) + "-" + token() + "." + p.Ext
}

func randomToken() string {
	tok, err := id.Token(tokenLength)
	if err != nil {
		s := strconv.FormatInt(time.Now().UnixNano(), 36)
		return s[len(s)-tokenLength:]
	}
	return tok
}
