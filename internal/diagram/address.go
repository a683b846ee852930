package diagram

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ErrNoMapping is returned by AddressMapping.Range when no base address is set.
var ErrNoMapping = errors.New("no address mapping")

var sizeUnits = map[string]uint64{
	"":    1,
	"B":   1,
	"K":   1 << 10,
	"KB":  1 << 10,
	"KIB": 1 << 10,
	"M":   1 << 20,
	"MB":  1 << 20,
	"MIB": 1 << 20,
	"G":   1 << 30,
	"GB":  1 << 30,
	"GIB": 1 << 30,
	"T":   1 << 40,
	"TB":  1 << 40,
	"TIB": 1 << 40,
}

// AddressRange is an inclusive physical address range.
type AddressRange struct {
	Start uint64 `json:"start"`
	Last  uint64 `json:"last"`
}

// Size returns the number of bytes covered by the range.
func (r AddressRange) Size() uint64 { return r.Last - r.Start + 1 }

// Overlaps reports whether r and o share at least one address.
func (r AddressRange) Overlaps(o AddressRange) bool {
	return r.Start <= o.Last && o.Start <= r.Last
}

func (r AddressRange) String() string {
	return fmt.Sprintf("0x%X-0x%X", r.Start, r.Last)
}

// ParseAddress parses a hex ("0x4000_0000") or decimal address literal.
func ParseAddress(q Quantity) (uint64, error) {
	s := cleanQuantity(q)
	if s == "" {
		return 0, fmt.Errorf("empty address")
	}
	if isHex(s) {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// ParseSize parses a size literal: hex, decimal, or decimal with a binary unit
// suffix (B, K/KB/KiB, M/MB/MiB, G/GB/GiB, T/TB/TiB).
func ParseSize(q Quantity) (uint64, error) {
	s := cleanQuantity(q)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	if isHex(s) {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size %q", string(q))
	}
	n, err := strconv.ParseUint(s[:i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", string(q), err)
	}
	mul, ok := sizeUnits[strings.TrimSpace(s[i:])]
	if !ok {
		return 0, fmt.Errorf("invalid size unit in %q", string(q))
	}
	hi, lo := bits.Mul64(n, mul)
	if hi != 0 {
		return 0, fmt.Errorf("size %q overflows 64 bits", string(q))
	}
	return lo, nil
}

// Range returns the inclusive range occupied by the mapping.
func (m *AddressMapping) Range() (AddressRange, error) {
	if m == nil || m.BaseAddress == "" {
		return AddressRange{}, ErrNoMapping
	}
	base, err := ParseAddress(m.BaseAddress)
	if err != nil {
		return AddressRange{}, fmt.Errorf("base address: %w", err)
	}
	if m.AddressSpace == "" {
		return AddressRange{}, fmt.Errorf("address space is not set")
	}
	size, err := ParseSize(m.AddressSpace)
	if err != nil {
		return AddressRange{}, fmt.Errorf("address space: %w", err)
	}
	if size == 0 {
		return AddressRange{}, fmt.Errorf("address space is zero")
	}
	last, carry := bits.Add64(base, size-1, 0)
	if carry != 0 {
		return AddressRange{}, fmt.Errorf("range 0x%X + %d exceeds 64-bit address space", base, size)
	}
	return AddressRange{Start: base, Last: last}, nil
}

func cleanQuantity(q Quantity) string {
	s := strings.ToUpper(strings.TrimSpace(string(q)))
	return strings.ReplaceAll(s, "_", "")
}

func isHex(s string) bool {
	return len(s) > 2 && s[0] == '0' && s[1] == 'X'
}
