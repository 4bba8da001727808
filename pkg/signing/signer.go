/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	_ "embed"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"sync"

	"github.com/mqmeter/mqmeter/pkg/report"
)

// The 2048-bit signing key ships with the tool. Rotation means replacing
// both embedded keys in the next release; there is no in-band negotiation.
//
//go:embed keys/signing_key.pem
var signingKeyPEM []byte

var (
	signingKeyOnce sync.Once
	signingKey     *rsa.PrivateKey
	signingKeyErr  error
)

// SignedReport wraps a Report with the Base64 signature over its canonical
// bytes. It is written once and never mutated.
type SignedReport struct {
	ReportData report.Report `json:"ReportData"`
	Signature  string        `json:"Signature"`
}

// loadSigningKey parses the embedded private key. The key is loaded once
// per process and held read-only afterwards.
func loadSigningKey() (*rsa.PrivateKey, error) {
	signingKeyOnce.Do(func() {
		signingKey, signingKeyErr = parsePrivateKey(signingKeyPEM)
	})
	return signingKey, signingKeyErr
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in signing key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing key is not an RSA key")
	}
	return rsaKey, nil
}

// Sign canonicalizes the report under the current schema version, computes
// its SHA-512 digest and signs it with the embedded private key.
func Sign(r report.Report) (*SignedReport, error) {
	key, err := loadSigningKey()
	if err != nil {
		return nil, err
	}

	canonical, err := CanonicalBytes(r, SchemaV2)
	if err != nil {
		return nil, err
	}

	digest := sha512.Sum512(canonical)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA512, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign report: %w", err)
	}

	return &SignedReport{
		ReportData: r,
		Signature:  base64.StdEncoding.EncodeToString(sig),
	}, nil
}
