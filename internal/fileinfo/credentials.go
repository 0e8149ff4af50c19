package fileinfo

import (
	"os"
	"strings"
	"sync"

	"shellview/internal/secret"
)

// Credentials represents SMB authentication parameters.
type Credentials struct {
	Domain   string
	Username string
	Password string
	Persist  bool // save to the secret store after a successful mount
}

func (c Credentials) empty() bool {
	return c.Username == "" && c.Password == "" && c.Domain == ""
}

// CredentialsProvider supplies credentials when neither the memory cache
// nor the secret store has any, e.g. from the environment or a prompt.
type CredentialsProvider interface {
	Get(host, share, relPath string) (Credentials, error)
}

// credentialChain looks up credentials in memory, then the secret
// store, then the provider. Hits from the later stages are remembered.
type credentialChain struct {
	mu       sync.RWMutex
	memory   map[string]Credentials
	store    secret.Store
	provider CredentialsProvider
}

var credentials = &credentialChain{memory: make(map[string]Credentials)}

func credKey(host, share string) string {
	return strings.ToLower(host) + "\x00" + strings.ToLower(share)
}

// ConfigureCredentials sets the secret store (may be nil) and the
// fallback provider (may be nil) used for network shares.
func ConfigureCredentials(store secret.Store, provider CredentialsProvider) {
	credentials.mu.Lock()
	defer credentials.mu.Unlock()
	credentials.store = store
	credentials.provider = provider
}

// PutCachedCredentials seeds the memory cache, e.g. from a URL.
func PutCachedCredentials(host, share string, c Credentials) {
	credentials.mu.Lock()
	credentials.memory[credKey(host, share)] = c
	credentials.mu.Unlock()
}

// GetCachedCredentials returns credentials held in memory only.
func GetCachedCredentials(host, share string) (Credentials, bool) {
	credentials.mu.RLock()
	defer credentials.mu.RUnlock()
	c, ok := credentials.memory[credKey(host, share)]
	if !ok || c.empty() {
		return Credentials{}, false
	}
	return c, true
}

// ClearCachedCredentials forgets the in-memory credentials for host/share,
// typically after the server rejected them.
func ClearCachedCredentials(host, share string) {
	credentials.mu.Lock()
	delete(credentials.memory, credKey(host, share))
	credentials.mu.Unlock()
}

func getCredentials(host, share, rel string) Credentials {
	if c, ok := GetCachedCredentials(host, share); ok {
		return c
	}
	credentials.mu.RLock()
	store, provider := credentials.store, credentials.provider
	credentials.mu.RUnlock()

	if store != nil {
		if d, u, p, found, _ := store.Get(host, share); found {
			c := Credentials{Domain: d, Username: u, Password: p}
			PutCachedCredentials(host, share, c)
			return c
		}
	}
	if provider == nil {
		return Credentials{}
	}
	c, err := provider.Get(host, share, rel)
	if err != nil || c.empty() {
		return Credentials{}
	}
	PutCachedCredentials(host, share, c)
	return c
}

// rememberCredentials persists credentials that just worked.
func rememberCredentials(host, share string, c Credentials) {
	if !c.Persist {
		return
	}
	credentials.mu.RLock()
	store := credentials.store
	credentials.mu.RUnlock()
	if store != nil {
		_ = store.Set(host, share, c.Domain, c.Username, c.Password)
	}
}

// EnvCredentials reads credentials from PREFIX_USER, PREFIX_PASSWORD and
// PREFIX_DOMAIN. Persist is set when PREFIX_PERSIST is "1" or "true".
type EnvCredentials struct {
	Prefix string
}

func (e EnvCredentials) Get(host, share, relPath string) (Credentials, error) {
	persist := strings.ToLower(os.Getenv(e.Prefix + "_PERSIST"))
	return Credentials{
		Domain:   os.Getenv(e.Prefix + "_DOMAIN"),
		Username: os.Getenv(e.Prefix + "_USER"),
		Password: os.Getenv(e.Prefix + "_PASSWORD"),
		Persist:  persist == "1" || persist == "true",
	}, nil
}

// ChainCredentials asks each provider in turn and returns the first
// non-empty credentials. Errors from earlier providers are skipped; the
// last one is returned when nobody answered.
type ChainCredentials []CredentialsProvider

func (c ChainCredentials) Get(host, share, relPath string) (Credentials, error) {
	var lastErr error
	for _, p := range c {
		creds, err := p.Get(host, share, relPath)
		if err != nil {
			lastErr = err
			continue
		}
		if !creds.empty() {
			return creds, nil
		}
	}
	return Credentials{}, lastErr
}
