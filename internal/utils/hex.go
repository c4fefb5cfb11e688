package utils

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// BytesToHex converts a byte slice to an uppercase hexadecimal string
func BytesToHex(b []byte) string {
	const hexd = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*2)
	for _, x := range b {
		out = append(out, hexd[x>>4], hexd[x&0x0F])
	}
	return string(out)
}

// ParseHex accepts frames as printed by BytesToHex, by "% X" formatting or
// with colon/0x separators, e.g. "FF0F", "FF 0F", "ff:0f", "0xFF 0x0F".
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer("0x", "", "0X", "", " ", "", ":", "", "-", "", "\t", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("parse hex %q: %w", s, err)
	}
	return b, nil
}
