// Package tls issues the short-lived self-signed certificate the API serves
// with when insecure HTTP is disabled.
package tls

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"
)

const (
	DefaultCommonName = "n8n Protector Certificate"
	DefaultValidity   = 28 * 24 * time.Hour
)

type Options struct {
	CommonName string
	Hosts      []string
	Validity   time.Duration
}

func (o Options) withDefaults() Options {
	if o.CommonName == "" {
		o.CommonName = DefaultCommonName
	}
	if o.Validity <= 0 {
		o.Validity = DefaultValidity
	}
	if len(o.Hosts) == 0 {
		o.Hosts = []string{"localhost", "127.0.0.1"}
	}
	return o
}

func certTemplate(o Options) (*x509.Certificate, error) {
	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	if serialNumber, err := rand.Int(rand.Reader, serialNumberLimit); err != nil {
		return nil, errors.New("failed to generate serial number: " + err.Error())
	} else {
		now := time.Now()
		tmpl := x509.Certificate{
			SerialNumber:          serialNumber,
			Subject:               pkix.Name{CommonName: o.CommonName},
			SignatureAlgorithm:    x509.SHA256WithRSA,
			NotBefore:             now,
			NotAfter:              now.Add(o.Validity),
			BasicConstraintsValid: true,
		}
		return &tmpl, nil
	}
}

func createCert(template, parent *x509.Certificate, pub any, parentPriv any) (*x509.Certificate, []byte, error) {
	if certDER, err := x509.CreateCertificate(rand.Reader, template, parent, pub, parentPriv); err != nil {
		return nil, nil, err
	} else if cert, err := x509.ParseCertificate(certDER); err != nil {
		return nil, nil, err
	} else {
		return cert, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}), nil
	}
}

// CreateServerCert signs a server certificate for o.Hosts with a throwaway
// root.
func CreateServerCert(o Options) (tls.Certificate, error) {
	o = o.withDefaults()

	rootKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}

	rootCertTmpl, err := certTemplate(o)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("creating cert template: %v", err)
	}
	rootCertTmpl.IsCA = true
	rootCertTmpl.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature
	rootCertTmpl.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}

	rootCert, _, err := createCert(rootCertTmpl, rootCertTmpl, &rootKey.PublicKey, rootKey)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("error creating root cert: %v", err)
	}

	servKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generating random key: %v", err)
	}

	servCertTmpl, err := certTemplate(o)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("creating cert template: %v", err)
	}
	servCertTmpl.KeyUsage = x509.KeyUsageDigitalSignature
	servCertTmpl.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	for _, h := range o.Hosts {
		if ip := net.ParseIP(h); ip != nil {
			servCertTmpl.IPAddresses = append(servCertTmpl.IPAddresses, ip)
		} else {
			servCertTmpl.DNSNames = append(servCertTmpl.DNSNames, h)
		}
	}

	_, servCertPEM, err := createCert(servCertTmpl, rootCert, &servKey.PublicKey, rootKey)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("error creating server cert: %v", err)
	}

	servKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(servKey),
	})

	if cert, err := tls.X509KeyPair(servCertPEM, servKeyPEM); err != nil {
		return tls.Certificate{}, fmt.Errorf("invalid key pair: %v", err)
	} else {
		return cert, nil
	}
}
