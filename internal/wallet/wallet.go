// Package wallet verifies proof-of-possession of Bitcoin wallet addresses.
//
// Signatures use the Bitcoin signed-message scheme produced by common wallets:
// a base64 compact recoverable secp256k1 signature over the double SHA-256 of
// the magic-prefixed message. The public key recovered from the signature must
// hash to the claimed pay-to-pubkey-hash address.
package wallet

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const messageMagic = "Bitcoin Signed Message:\n"

// ErrInvalidAddress is returned for addresses that cannot sign messages on the
// configured network.
var ErrInvalidAddress = errors.New("invalid wallet address")

// Verifier checks wallet addresses and message signatures.
// *BitcoinVerifier satisfies this interface.
type Verifier interface {
	ValidateAddress(address string) error
	VerifyMessage(address, message, signature string) (bool, error)
}

// BitcoinVerifier verifies Bitcoin signed messages for P2PKH addresses.
type BitcoinVerifier struct {
	params *chaincfg.Params
}

// NewBitcoinVerifier creates a verifier for the given network.
func NewBitcoinVerifier(params *chaincfg.Params) *BitcoinVerifier {
	return &BitcoinVerifier{params: params}
}

// ParamsForNetwork maps a network name to its chain parameters.
func ParamsForNetwork(name string) (*chaincfg.Params, error) {
	switch name {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3", "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

// ValidateAddress implements Verifier.
func (v *BitcoinVerifier) ValidateAddress(address string) error {
	addr, err := btcutil.DecodeAddress(address, v.params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !addr.IsForNet(v.params) {
		return fmt.Errorf("%w: not a %s address", ErrInvalidAddress, v.params.Name)
	}
	if _, ok := addr.(*btcutil.AddressPubKeyHash); !ok {
		return fmt.Errorf("%w: only pay-to-pubkey-hash addresses can sign messages", ErrInvalidAddress)
	}
	return nil
}

// VerifyMessage implements Verifier. A well-formed signature by a different key
// returns false with a nil error; undecodable input returns an error.
func (v *BitcoinVerifier) VerifyMessage(address, message, signature string) (bool, error) {
	if err := v.ValidateAddress(address); err != nil {
		return false, err
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("decode signature: %w", err)
	}

	pub, compressed, err := ecdsa.RecoverCompact(sig, messageHash(message))
	if err != nil {
		return false, nil
	}

	recovered, err := pubKeyAddress(pub, compressed, v.params)
	if err != nil {
		return false, err
	}
	return recovered == address, nil
}

// SignMessage signs message with key, producing the base64 signature format
// accepted by VerifyMessage.
func SignMessage(key *btcec.PrivateKey, compressed bool, message string) string {
	return base64.StdEncoding.EncodeToString(ecdsa.SignCompact(key, messageHash(message), compressed))
}

// SignMessageWIF signs message with a WIF-encoded private key and returns the
// signature along with the key's P2PKH address on params.
func SignMessageWIF(wif, message string, params *chaincfg.Params) (address, signature string, err error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return "", "", fmt.Errorf("decode WIF: %w", err)
	}
	address, err = pubKeyAddress(decoded.PrivKey.PubKey(), decoded.CompressPubKey, params)
	if err != nil {
		return "", "", err
	}
	return address, SignMessage(decoded.PrivKey, decoded.CompressPubKey, message), nil
}

// AddressForKey returns the P2PKH address of key on params.
func AddressForKey(key *btcec.PrivateKey, compressed bool, params *chaincfg.Params) (string, error) {
	return pubKeyAddress(key.PubKey(), compressed, params)
}

func pubKeyAddress(pub *btcec.PublicKey, compressed bool, params *chaincfg.Params) (string, error) {
	var serialized []byte
	if compressed {
		serialized = pub.SerializeCompressed()
	} else {
		serialized = pub.SerializeUncompressed()
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(serialized), params)
	if err != nil {
		return "", fmt.Errorf("derive address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// messageHash returns the double SHA-256 of the magic-prefixed message.
func messageHash(message string) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = wire.WriteVarString(&buf, 0, messageMagic)
	_ = wire.WriteVarString(&buf, 0, message)
	return chainhash.DoubleHashB(buf.Bytes())
}
