package registry

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

// encodeFloats packs values as little-endian IEEE 754 doubles
func encodeFloats(values []float64) []byte {
	p := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(p[8*i:], math.Float64bits(v))
	}
	return p
}

func decodeFloats(p []byte) ([]float64, error) {
	if len(p)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(p))
	}
	values := make([]float64, len(p)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(p[8*i:]))
	}
	return values, nil
}

func encodeShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeShape(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parsing shape '%s': %w", s, err)
		}
		shape[i] = d
	}
	return shape, nil
}
