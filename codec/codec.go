// Package codec implements the reversible obfuscation used for published
// data blobs: JSON text -> base64 -> fixed character substitution -> reverse,
// prefixed with a version tag. it is not encryption.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camden-git/wallpapersync/utils"
)

// VersionPrefix marks the blob format. decoders on the client side switch on it.
const VersionPrefix = "v1."

var (
	ErrUnknownVersion = errors.New("codec: unknown blob version")
	ErrMalformedBlob  = errors.New("codec: malformed blob")
)

// substitution over the base64 alphabet; must stay in sync with the gallery client
var encodeTable = map[byte]byte{
	'A': 'Q', 'B': 'W', 'C': 'E', 'D': 'R', 'E': 'T',
	'F': 'Y', 'G': 'U', 'H': 'I', 'I': 'O', 'J': 'P',
	'K': 'A', 'L': 'S', 'M': 'D', 'N': 'F', 'O': 'G',
	'P': 'H', 'Q': 'J', 'R': 'K', 'S': 'L', 'T': 'Z',
	'U': 'X', 'V': 'C', 'W': 'V', 'X': 'B', 'Y': 'N',
	'Z': 'M',
	'a': 'q', 'b': 'w', 'c': 'e', 'd': 'r', 'e': 't',
	'f': 'y', 'g': 'u', 'h': 'i', 'i': 'o', 'j': 'p',
	'k': 'a', 'l': 's', 'm': 'd', 'n': 'f', 'o': 'g',
	'p': 'h', 'q': 'j', 'r': 'k', 's': 'l', 't': 'z',
	'u': 'x', 'v': 'c', 'w': 'v', 'x': 'b', 'y': 'n',
	'z': 'm',
	'0': '5', '1': '6', '2': '7', '3': '8', '4': '9',
	'5': '0', '6': '1', '7': '2', '8': '3', '9': '4',
	'+': '-', '/': '_', '=': '.',
}

var encodeLUT, decodeLUT [256]byte

func init() {
	for i := range encodeLUT {
		encodeLUT[i] = byte(i)
		decodeLUT[i] = byte(i)
	}
	seen := make(map[byte]byte, len(encodeTable))
	for from, to := range encodeTable {
		if prev, dup := seen[to]; dup {
			panic(fmt.Sprintf("codec: substitution table maps both %q and %q to %q", prev, from, to))
		}
		seen[to] = from
		encodeLUT[from] = to
		decodeLUT[to] = from
	}
}

// EncodeText obfuscates an already-serialized JSON document
func EncodeText(jsonText string) string {
	b64 := base64.StdEncoding.EncodeToString([]byte(jsonText))
	out := make([]byte, len(b64))
	n := len(b64)
	for i := 0; i < n; i++ {
		out[n-1-i] = encodeLUT[b64[i]]
	}
	return VersionPrefix + string(out)
}

// Encode serializes v to canonical JSON text and obfuscates it
func Encode(v any) (string, error) {
	text, err := utils.MarshalCompact(v)
	if err != nil {
		return "", fmt.Errorf("codec: failed to marshal payload: %w", err)
	}
	return EncodeText(string(text)), nil
}

// Decode reverses EncodeText and returns the original JSON text
func Decode(blob string) ([]byte, error) {
	if !strings.HasPrefix(blob, VersionPrefix) {
		return nil, ErrUnknownVersion
	}
	body := blob[len(VersionPrefix):]
	n := len(body)
	b64 := make([]byte, n)
	for i := 0; i < n; i++ {
		b64[i] = decodeLUT[body[n-1-i]]
	}
	out, err := base64.StdEncoding.DecodeString(string(b64))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	return out, nil
}

// DecodeInto decodes blob and unmarshals the JSON payload into v
func DecodeInto(blob string, v any) error {
	text, err := Decode(blob)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(text, v); err != nil {
		return fmt.Errorf("%w: payload is not JSON: %v", ErrMalformedBlob, err)
	}
	return nil
}
