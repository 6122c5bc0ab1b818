package services

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// FileDecrypter turns an encrypted input file into its plaintext.
type FileDecrypter interface {
	DecryptFile(src, dst string) error
}

// FileEncrypter encrypts an export before it is handed downstream.
type FileEncrypter interface {
	EncryptFile(src, dst string) error
}

type PGPDecrypter struct {
	keyring openpgp.EntityList
}

type PGPEncrypter struct {
	recipients openpgp.EntityList
}

func NewPGPDecrypter(keyring openpgp.EntityList) *PGPDecrypter {
	return &PGPDecrypter{keyring: keyring}
}

func NewPGPEncrypter(recipients openpgp.EntityList) *PGPEncrypter {
	return &PGPEncrypter{recipients: recipients}
}

// LoadPGPDecrypter reads an armored secret keyring and unlocks it with
// passphrase when the keys are protected.
func LoadPGPDecrypter(keyFile, passphrase string) (*PGPDecrypter, error) {
	keyring, err := readArmoredKeyRing(keyFile)
	if err != nil {
		return nil, err
	}

	if passphrase != "" {
		pass := []byte(passphrase)
		for _, entity := range keyring {
			if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
				if err := entity.PrivateKey.Decrypt(pass); err != nil {
					return nil, fmt.Errorf("unlock private key: %w", err)
				}
			}
			for _, sub := range entity.Subkeys {
				if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
					if err := sub.PrivateKey.Decrypt(pass); err != nil {
						return nil, fmt.Errorf("unlock private subkey: %w", err)
					}
				}
			}
		}
	}

	return NewPGPDecrypter(keyring), nil
}

func LoadPGPEncrypter(keyFile string) (*PGPEncrypter, error) {
	keyring, err := readArmoredKeyRing(keyFile)
	if err != nil {
		return nil, err
	}
	return NewPGPEncrypter(keyring), nil
}

func readArmoredKeyRing(keyFile string) (openpgp.EntityList, error) {
	f, err := os.Open(keyFile)
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("read key ring %s: %w", keyFile, err)
	}
	return keyring, nil
}

// DecryptFile decrypts src (armored or binary) into dst.
func (d *PGPDecrypter) DecryptFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	body, err := dearmor(bufio.NewReader(in))
	if err != nil {
		return err
	}

	md, err := openpgp.ReadMessage(body, d.keyring, nil, nil)
	if err != nil {
		return fmt.Errorf("read pgp message: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, md.UnverifiedBody); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("decrypt %s: %w", src, err)
	}
	return out.Close()
}

// EncryptFile encrypts src for the configured recipients into dst.
func (e *PGPEncrypter) EncryptFile(src, dst string) error {
	if len(e.recipients) == 0 {
		return errors.New("no pgp recipients configured")
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	w, err := openpgp.Encrypt(out, e.recipients, nil, &openpgp.FileHints{IsBinary: true}, nil)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("encrypt %s: %w", src, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("encrypt %s: %w", src, err)
	}
	if err := w.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

var armorPrefix = []byte("-----BEGIN PGP")

func dearmor(r *bufio.Reader) (io.Reader, error) {
	head, _ := r.Peek(len(armorPrefix))
	if !bytes.Equal(head, armorPrefix) {
		return r, nil
	}
	block, err := armor.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode armor: %w", err)
	}
	return block.Body, nil
}
