package wallet_test

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jmerrifield20/starnotary/internal/wallet"
)

func newKey(t *testing.T, compressed bool) (*btcec.PrivateKey, string) {
	t.Helper()
	key, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	addr, err := wallet.AddressForKey(key, compressed, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatal(err)
	}
	return key, addr
}

func TestVerifyMessage_valid(t *testing.T) {
	v := wallet.NewBitcoinVerifier(&chaincfg.MainNetParams)

	for _, compressed := range []bool{true, false} {
		key, addr := newKey(t, compressed)
		msg := addr + ":1700000000:starRegistry"

		sig := wallet.SignMessage(key, compressed, msg)
		ok, err := v.VerifyMessage(addr, msg, sig)
		if err != nil {
			t.Fatalf("VerifyMessage (compressed=%v): %v", compressed, err)
		}
		if !ok {
			t.Errorf("expected valid signature (compressed=%v)", compressed)
		}
	}
}

func TestVerifyMessage_wrongMessage(t *testing.T) {
	v := wallet.NewBitcoinVerifier(&chaincfg.MainNetParams)
	key, addr := newKey(t, true)

	sig := wallet.SignMessage(key, true, addr+":1700000000:starRegistry")
	ok, err := v.VerifyMessage(addr, addr+":1700000001:starRegistry", sig)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("signature over a different message must not verify")
	}
}

func TestVerifyMessage_wrongSigner(t *testing.T) {
	v := wallet.NewBitcoinVerifier(&chaincfg.MainNetParams)
	_, owner := newKey(t, true)
	other, _ := newKey(t, true)

	msg := owner + ":1700000000:starRegistry"
	sig := wallet.SignMessage(other, true, msg)

	ok, err := v.VerifyMessage(owner, msg, sig)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("signature by another key must not verify")
	}
}

func TestVerifyMessage_malformedSignature(t *testing.T) {
	v := wallet.NewBitcoinVerifier(&chaincfg.MainNetParams)
	_, addr := newKey(t, true)

	if _, err := v.VerifyMessage(addr, "msg", "%%% not base64 %%%"); err == nil {
		t.Error("expected error for non-base64 signature")
	}

	ok, err := v.VerifyMessage(addr, "msg", "AAAA")
	if err != nil || ok {
		t.Errorf("short signature: got ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestValidateAddress(t *testing.T) {
	v := wallet.NewBitcoinVerifier(&chaincfg.MainNetParams)
	_, addr := newKey(t, true)

	if err := v.ValidateAddress(addr); err != nil {
		t.Errorf("valid mainnet address rejected: %v", err)
	}

	key, _ := btcec.NewPrivateKey()
	testnetAddr, _ := wallet.AddressForKey(key, true, &chaincfg.TestNet3Params)

	for name, bad := range map[string]string{
		"garbage": "not-an-address",
		"empty":   "",
		"testnet": testnetAddr,
	} {
		t.Run(name, func(t *testing.T) {
			if err := v.ValidateAddress(bad); !errors.Is(err, wallet.ErrInvalidAddress) {
				t.Errorf("expected ErrInvalidAddress, got %v", err)
			}
		})
	}
}

func TestSignMessageWIF(t *testing.T) {
	key, addr := newKey(t, true)
	wif, err := btcutil.NewWIF(key, &chaincfg.MainNetParams, true)
	if err != nil {
		t.Fatal(err)
	}

	gotAddr, sig, err := wallet.SignMessageWIF(wif.String(), "hello", &chaincfg.MainNetParams)
	if err != nil {
		t.Fatal(err)
	}
	if gotAddr != addr {
		t.Errorf("address: got %q, want %q", gotAddr, addr)
	}

	ok, err := wallet.NewBitcoinVerifier(&chaincfg.MainNetParams).VerifyMessage(addr, "hello", sig)
	if err != nil || !ok {
		t.Errorf("WIF signature did not verify: ok=%v err=%v", ok, err)
	}
}

func TestParamsForNetwork(t *testing.T) {
	for _, name := range []string{"mainnet", "testnet3", "regtest", "signet", ""} {
		if _, err := wallet.ParamsForNetwork(name); err != nil {
			t.Errorf("ParamsForNetwork(%q): %v", name, err)
		}
	}
	if _, err := wallet.ParamsForNetwork("dogecoin"); err == nil {
		t.Error("expected error for unknown network")
	}
}
