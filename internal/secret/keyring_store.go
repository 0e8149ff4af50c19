package secret

import (
	"errors"
	"strings"

	"github.com/99designs/keyring"

	"shellview/internal/constants"
)

const serviceName = constants.ApplicationName + ".smb"

type keyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the OS keyring via 99designs/keyring.
func NewKeyringStore() (Store, error) {
	r, err := keyring.Open(keyring.Config{ServiceName: serviceName})
	if err != nil {
		return nil, err
	}
	return &keyringStore{ring: r}, nil
}

func makeKey(host, share string) string {
	return strings.ToLower(host) + "|" + strings.ToLower(share)
}

// splitAccount parses "domain\user", "domain;user" or "user".
func splitAccount(desc string) (domain, user string) {
	if i := strings.IndexAny(desc, `\;`); i >= 0 {
		return desc[:i], desc[i+1:]
	}
	return "", desc
}

func joinAccount(domain, user string) string {
	if domain == "" {
		return user
	}
	return domain + `\` + user
}

func (s *keyringStore) Get(host, share string) (domain, user, pass string, found bool, err error) {
	item, err := s.ring.Get(makeKey(host, share))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", "", "", false, nil
	}
	if err != nil {
		return "", "", "", false, err
	}
	domain, user = splitAccount(item.Description)
	return domain, user, string(item.Data), true, nil
}

func (s *keyringStore) Set(host, share, domain, user, pass string) error {
	return s.ring.Set(keyring.Item{
		Key:         makeKey(host, share),
		Data:        []byte(pass),
		Description: joinAccount(domain, user),
		Label:       serviceName,
	})
}

func (s *keyringStore) Delete(host, share string) error {
	err := s.ring.Remove(makeKey(host, share))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}
