/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package signing

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	_ "embed"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"

	"github.com/mqmeter/mqmeter/pkg/report"
)

// ErrTamperedOrCorrupt is the single verification failure. Canonicalization
// mismatch, digest mismatch and signature failure are deliberately
// indistinguishable: reporting which field changed would hand a tamperer an
// oracle.
var ErrTamperedOrCorrupt = errors.New("report is tampered or corrupt")

//go:embed keys/verify_key.pem
var verifyKeyPEM []byte

var (
	verifyKeyOnce sync.Once
	verifyKey     *rsa.PublicKey
	verifyKeyErr  error
)

func loadVerifyKey() (*rsa.PublicKey, error) {
	verifyKeyOnce.Do(func() {
		verifyKey, verifyKeyErr = parsePublicKey(verifyKeyPEM)
	})
	return verifyKey, verifyKeyErr
}

func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in verify key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse verify key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("verify key is not an RSA key")
	}
	return rsaKey, nil
}

// Verify checks a signed report against the embedded public key. The report
// is re-canonicalized under the current schema rules first; if the
// signature does not match, the legacy rules are tried so that artifacts
// produced by older tool versions keep verifying. Any failure, at any
// stage, is ErrTamperedOrCorrupt.
func Verify(sr SignedReport) error {
	key, err := loadVerifyKey()
	if err != nil {
		// A broken embedded key is a build defect, not a tampered report.
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(sr.Signature)
	if err != nil {
		return ErrTamperedOrCorrupt
	}

	for _, version := range []SchemaVersion{SchemaV2, SchemaV1} {
		if verifyUnder(key, sr.ReportData, sig, version) == nil {
			return nil
		}
	}
	return ErrTamperedOrCorrupt
}

func verifyUnder(key *rsa.PublicKey, r report.Report, sig []byte, v SchemaVersion) error {
	canonical, err := CanonicalBytes(r, v)
	if err != nil {
		return err
	}
	digest := sha512.Sum512(canonical)
	return rsa.VerifyPKCS1v15(key, crypto.SHA512, digest[:], sig)
}
