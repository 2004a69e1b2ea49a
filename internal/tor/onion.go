package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// OnionSuffix is the top-level label of every onion service host.
	OnionSuffix = ".onion"

	// onionV3Version is the trailing version byte of a v3 address.
	onionV3Version = 0x03
	// onionV3KeySize is the size of the ed25519 public key inside a v3 address.
	onionV3KeySize = 32
)

var (
	// 56 base32 characters encode key (32) + checksum (2) + version (1).
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)

	checksumPrefix = []byte(".onion checksum")
)

// IsOnionHost reports whether host belongs to the .onion top-level domain.
// A trailing root dot is ignored.
func IsOnionHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	return host == "onion" || strings.HasSuffix(host, OnionSuffix)
}

// IsValidV3Address reports whether address is a well-formed v3 onion host
// whose embedded checksum and version byte are correct. Subdomains of an
// onion service are accepted.
func IsValidV3Address(address string) bool {
	address = serviceLabel(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != onionV3KeySize+3 {
		return false
	}
	pubkey := decoded[:onionV3KeySize]
	checksum := decoded[onionV3KeySize : onionV3KeySize+2]
	if decoded[onionV3KeySize+2] != onionV3Version {
		return false
	}
	want := v3Checksum(pubkey)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// IsV2Address reports whether address has the shape of a v2 onion host.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(serviceLabel(address))
}

// CheckOnionHost returns nil for hosts outside .onion and for valid v3
// addresses. Anything else under .onion can never be reached and is
// rejected before a connection is attempted.
func CheckOnionHost(host string) error {
	if !IsOnionHost(host) {
		return nil
	}
	switch {
	case IsValidV3Address(host):
		return nil
	case IsV2Address(host):
		return ErrV2AddressDeprecated
	default:
		return ErrInvalidOnionAddress
	}
}

// V3AddressFromPublicKey returns the v3 onion host of an ed25519 public key.
func V3AddressFromPublicKey(pubkey []byte) (string, error) {
	if len(pubkey) != onionV3KeySize {
		return "", ErrInvalidOnionAddress
	}
	data := make([]byte, 0, onionV3KeySize+3)
	data = append(data, pubkey...)
	data = append(data, v3Checksum(pubkey)...)
	data = append(data, onionV3Version)
	return strings.ToLower(base32.StdEncoding.EncodeToString(data)) + OnionSuffix, nil
}

// v3Checksum is the first two bytes of SHA3-256(".onion checksum" || pubkey || version).
func v3Checksum(pubkey []byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, onionV3Version)
	sum := sha3.Sum256(data)
	return sum[:2]
}

// serviceLabel lowercases address and keeps only the service label and the
// .onion suffix, so "www.<key>.onion" checks as "<key>.onion".
func serviceLabel(address string) string {
	address = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(address)), ".")
	labels := strings.Split(address, ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".")
}
