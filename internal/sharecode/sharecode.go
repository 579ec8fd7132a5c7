package sharecode

import (
	"github.com/speps/go-hashids/v2"
)

// Generator turns a review's internal serial into a short, non-guessable
// code for share links, so the UUID never has to appear in a shared URL.
type Generator struct {
	h *hashids.HashID
}

func New(salt string) (*Generator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &Generator{h: h}, nil
}

func (g *Generator) Encode(seq int64) (string, error) {
	return g.h.EncodeInt64([]int64{seq})
}
