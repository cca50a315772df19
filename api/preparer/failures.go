package preparer

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/ka2n/csswrap/api/fetch"
	"github.com/samber/lo"
)

// Key identifies a failed resource: the hex md5 of its URI.
func Key(uri string) string {
	sum := md5.Sum([]byte(uri))
	return hex.EncodeToString(sum[:])
}

// failureSet keeps the first failure per URI in the order they occurred.
type failureSet struct {
	keys  []string
	items map[string]fetch.Outcome
}

func (s *failureSet) add(o fetch.Outcome) {
	if s.items == nil {
		s.items = make(map[string]fetch.Outcome)
	}
	k := Key(o.URI)
	if _, ok := s.items[k]; ok {
		return
	}
	s.keys = append(s.keys, k)
	s.items[k] = o
}

func (s *failureSet) list(kinds ...fetch.Kind) []fetch.Outcome {
	out := make([]fetch.Outcome, 0, len(s.keys))
	for _, k := range s.keys {
		if o := s.items[k]; len(kinds) == 0 || lo.Contains(kinds, o.Kind) {
			out = append(out, o)
		}
	}
	return out
}
