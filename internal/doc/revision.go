package doc

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"hash"
	"math"
)

// Revision returns the hex SHA-256 of the exact tree v: object keys in
// insertion order, strings byte for byte and every scalar tagged with its
// kind. Every ContentType encodes a tree deterministically, so two trees with
// the same revision produce the same bytes in every format. Fingerprint, in
// contrast, ignores key order and Unicode normalization.
func Revision(v any) (string, error) {
	h := sha256.New()
	if err := writeRevision(h, v); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeRevision(h hash.Hash, v any) error {
	var scratch [binary.MaxVarintLen64 + 1]byte
	tagged := func(tag byte, n uint64) {
		scratch[0] = tag
		h.Write(binary.AppendUvarint(scratch[:1], n))
	}
	str := func(tag byte, s string) {
		tagged(tag, uint64(len(s)))
		h.Write([]byte(s))
	}

	switch val := v.(type) {
	case nil:
		h.Write([]byte{'n'})
	case bool:
		if val {
			h.Write([]byte{'t'})
		} else {
			h.Write([]byte{'f'})
		}
	case string:
		str('s', val)
	case int64:
		tagged('i', uint64(val))
	case uint64:
		tagged('u', val)
	case float64:
		tagged('d', math.Float64bits(val))
	case json.Number:
		str('N', string(val))
	case *Object:
		if val == nil {
			h.Write([]byte{'n'})
			return nil
		}
		tagged('o', uint64(len(val.keys)))
		for _, k := range val.keys {
			str('k', k)
			if err := writeRevision(h, val.values[k]); err != nil {
				return err
			}
		}
	case []any:
		tagged('a', uint64(len(val)))
		for _, elem := range val {
			if err := writeRevision(h, elem); err != nil {
				return err
			}
		}
	default:
		nv, err := Normalize(v)
		if err != nil {
			return err
		}
		return writeRevision(h, nv)
	}
	return nil
}
