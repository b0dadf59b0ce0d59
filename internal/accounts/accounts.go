// internal/accounts/accounts.go
//
// Package accounts is the configuration collaborator boundary: it supplies the
// ordered list of Account records the core automates. The records are opaque
// to the core and read-only for the duration of a run; editing them is the
// job of tooling outside this repository.
package accounts

import (
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Account is one set of credentials plus transaction parameters.
type Account struct {
	Name            string `json:"name"`
	DPCode          string `json:"dp_value"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	TransactionPIN  string `json:"transaction_pin"`
	AppliedQuantity int    `json:"applied_kitta"`
	CRN             string `json:"crn_number"`
}

// Validate checks the fields the automation cannot proceed without.
func (a Account) Validate() error {
	switch {
	case a.Name == "":
		return fmt.Errorf("account name is required")
	case a.DPCode == "":
		return fmt.Errorf("account %q: dp_value is required", a.Name)
	case a.Username == "":
		return fmt.Errorf("account %q: username is required", a.Name)
	case a.Password == "":
		return fmt.Errorf("account %q: password is required", a.Name)
	case a.TransactionPIN == "":
		return fmt.Errorf("account %q: transaction_pin is required", a.Name)
	case a.AppliedQuantity <= 0:
		return fmt.Errorf("account %q: applied_kitta must be positive", a.Name)
	case a.CRN == "":
		return fmt.Errorf("account %q: crn_number is required", a.Name)
	}
	return nil
}

type accountsFile struct {
	Members []Account `json:"members"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads the ordered account list from the accounts file. A missing file
// is not an error; it yields an empty list.
func Load(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read accounts file %s: %w", path, err)
	}

	var f accountsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file %s: %w", path, err)
	}

	for _, a := range f.Members {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("accounts file %s: %w", path, err)
		}
	}
	return f.Members, nil
}

// FindByName returns the account whose name matches, case-insensitively.
func FindByName(list []Account, name string) (Account, bool) {
	for _, a := range list {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Account{}, false
}
