package smsc

// Account is one configured system_id/password pair allowed to bind.
type Account struct {
	SystemID string
	Password string
}

// Authenticator checks bind credentials against the configured accounts:
// the default account plus any additional ones, mirroring the simulator's
// flat account list rather than a database-backed user store.
type Authenticator struct {
	accounts []Account
}

// NewAuthenticator builds an Authenticator from the configured accounts.
func NewAuthenticator(accounts []Account) *Authenticator {
	return &Authenticator{accounts: accounts}
}

// Authenticate reports whether systemID/password matches a configured
// account.
func (a *Authenticator) Authenticate(systemID, password string) bool {
	for _, acc := range a.accounts {
		if acc.SystemID == systemID && acc.Password == password {
			return true
		}
	}
	return false
}
