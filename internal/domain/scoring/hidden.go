package scoring

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// Environment variables carrying the hidden evaluation data.
const (
	EnvLabels        = "PRIVATE_Y"
	EnvChallengeMask = "PRIVATE_TEST_MASK_CHALLENGE"
	EnvOriginalMask  = "PRIVATE_TEST_MASK"
)

// Hidden is the label set and masks a submission is scored against.
type Hidden struct {
	Labels        []int64
	ChallengeMask []bool
	OriginalMask  []bool
}

// Input pairs the hidden data with a team's predictions.
func (h Hidden) Input(team string, predictions []int64) Input {
	return Input{
		Team:          team,
		Labels:        h.Labels,
		ChallengeMask: h.ChallengeMask,
		OriginalMask:  h.OriginalMask,
		Predictions:   predictions,
	}
}

// LoadHidden decodes the hidden labels and masks via getenv (os.Getenv in
// production).
func LoadHidden(getenv func(string) string) (Hidden, error) {
	var h Hidden
	raw := func(name string) (string, error) {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingSecret, name)
		}
		return v, nil
	}

	v, err := raw(EnvLabels)
	if err != nil {
		return h, err
	}
	if h.Labels, err = DecodeInt64Tensor(v); err != nil {
		return h, fmt.Errorf("%s: %w", EnvLabels, err)
	}

	if v, err = raw(EnvChallengeMask); err != nil {
		return h, err
	}
	if h.ChallengeMask, err = DecodeBoolTensor(v); err != nil {
		return h, fmt.Errorf("%s: %w", EnvChallengeMask, err)
	}

	if v, err = raw(EnvOriginalMask); err != nil {
		return h, err
	}
	if h.OriginalMask, err = DecodeBoolTensor(v); err != nil {
		return h, fmt.Errorf("%s: %w", EnvOriginalMask, err)
	}
	return h, nil
}

// DecodeInt64Tensor decodes base64 of a little-endian int64 array.
func DecodeInt64Tensor(b64 string) ([]int64, error) {
	buf, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadTensor, err)
	}
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of 8", ErrBadTensor, len(buf))
	}
	out := make([]int64, len(buf)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}

// EncodeInt64Tensor is the inverse of DecodeInt64Tensor.
func EncodeInt64Tensor(vals []int64) string {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeBoolTensor decodes base64 of a one-byte-per-element bool array.
func DecodeBoolTensor(b64 string) ([]bool, error) {
	buf, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadTensor, err)
	}
	out := make([]bool, len(buf))
	for i, b := range buf {
		out[i] = b != 0
	}
	return out, nil
}

// EncodeBoolTensor is the inverse of DecodeBoolTensor.
func EncodeBoolTensor(vals []bool) string {
	buf := make([]byte, len(vals))
	for i, v := range vals {
		if v {
			buf[i] = 1
		}
	}
	return base64.StdEncoding.EncodeToString(buf)
}
