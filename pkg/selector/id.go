package selector

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/mo"
)

// ID identifies a candidate by a hash of its natural key (host string,
// VirtualBox UUID, package name). It is marshalled as a decimal string so
// JavaScript clients keep all 64 bits.
type ID uint64

func HashID(naturalKey string) ID {
	return ID(xxhash.Sum64String(naturalKey))
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 10, 64)
	if err != nil {
		return err //nolint:wrapcheck // surfaced by encoding/json with field context
	}
	*id = ID(v)
	return nil
}

// Optional converts the wire form of an id field into an option.
func Optional(id *ID) mo.Option[ID] {
	if id == nil {
		return mo.None[ID]()
	}
	return mo.Some(*id)
}
