package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	ConfigHash Hash
	CohortHash Hash
)

func (h ConfigHash) String() string { return Hash(h).String() }
func (h CohortHash) String() string { return Hash(h).String() }

// ComputeConfigHash hashes a flat parameter map with sorted keys
func ComputeConfigHash(params map[string]interface{}) ConfigHash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteByte('=')
		data.WriteString(fmt.Sprintf("%v", params[key]))
		data.WriteByte(';')
	}

	return ConfigHash(NewHash([]byte(data.String())))
}

// ComputeCohortHash hashes the ordered (subject, label) sequence of a cohort.
// Order matters: fold order and feature rows follow sample order.
func ComputeCohortHash(subjects []SubjectID, labels []int) CohortHash {
	var data strings.Builder
	for i, s := range subjects {
		data.WriteString(s.String())
		data.WriteByte(':')
		if i < len(labels) {
			data.WriteString(fmt.Sprintf("%d", labels[i]))
		}
		data.WriteByte('|')
	}
	return CohortHash(NewHash([]byte(data.String())))
}

// HashFloats hashes the exact bit patterns of a float slice
func HashFloats(values []float64) Hash {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}
