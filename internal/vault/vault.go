// Package vault provides an in-memory token ledger used by the simulator and
// tests. The engine consumes only the account-bound view.
package vault

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrInsufficientBalance = errors.New("vault: insufficient balance")

// Vault maps token then account to a balance.
type Vault struct {
	mu       sync.Mutex
	balances map[common.Address]map[common.Address]*uint256.Int
}

func New() *Vault {
	return &Vault{balances: make(map[common.Address]map[common.Address]*uint256.Int)}
}

// Credit mints amount of token into account.
func (v *Vault) Credit(token, account common.Address, amount *uint256.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balance(token, account).Add(v.balance(token, account), amount)
}

// BalanceOf returns a copy of the balance of account in token.
func (v *Vault) BalanceOf(token, account common.Address) (*uint256.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(uint256.Int).Set(v.balance(token, account)), nil
}

// TransferFrom moves amount of token from one account to another.
func (v *Vault) TransferFrom(token, from, to common.Address, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	src := v.balance(token, from)
	if src.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), src.Dec(), amount.Dec())
	}
	src.Sub(src, amount)
	dst := v.balance(token, to)
	dst.Add(dst, amount)
	return nil
}

// balance returns the mutable balance record, materializing zero. Callers
// hold the mutex.
func (v *Vault) balance(token, account common.Address) *uint256.Int {
	accounts, ok := v.balances[token]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		v.balances[token] = accounts
	}
	bal, ok := accounts[account]
	if !ok {
		bal = new(uint256.Int)
		accounts[account] = bal
	}
	return bal
}

// Account is a view of the vault bound to one holder; transfers draw from the
// holder's balance.
type Account struct {
	vault  *Vault
	holder common.Address
}

// Bind returns the vault view for holder.
func (v *Vault) Bind(holder common.Address) *Account {
	return &Account{vault: v, holder: holder}
}

func (a *Account) BalanceOf(token, account common.Address) (*uint256.Int, error) {
	return a.vault.BalanceOf(token, account)
}

func (a *Account) Transfer(token, to common.Address, amount *uint256.Int) error {
	return a.vault.TransferFrom(token, a.holder, to, amount)
}
