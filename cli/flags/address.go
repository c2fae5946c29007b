package flags

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli"
)

// Account is a wrapper for a NEAR account ID with flag.Value methods.
type Account struct {
	IsSet bool
	Value util.AccountID
}

// AccountFlag is a flag with type util.AccountID.
type AccountFlag struct {
	Name  string
	Usage string
	Value Account
}

// EVMAddress is a wrapper for an EVM address with flag.Value methods.
type EVMAddress struct {
	IsSet bool
	Value common.Address
}

// EVMAddressFlag is a flag with type common.Address. NEAR account IDs are
// accepted too and converted to their EVM representation.
type EVMAddressFlag struct {
	Name  string
	Usage string
	Value EVMAddress
}

var (
	_ flag.Value = (*Account)(nil)
	_ flag.Value = (*EVMAddress)(nil)
	_ cli.Flag   = AccountFlag{}
	_ cli.Flag   = EVMAddressFlag{}
)

// String implements the fmt.Stringer interface.
func (a Account) String() string {
	return a.Value.String()
}

// Set implements the flag.Value interface.
func (a *Account) Set(s string) error {
	acc, err := util.ParseAccountID(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.IsSet = true
	a.Value = acc
	return nil
}

// IsSet checks if flag was set to a non-default value.
func (f AccountFlag) IsSet() bool {
	return f.Value.IsSet
}

// String returns a readable representation of this value
// (for usage defaults).
func (f AccountFlag) String() string {
	return nameHelp(f.Name) + "\t" + f.Usage
}

// GetName returns the name of the flag.
func (f AccountFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
func (f AccountFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

// ParseEVMAddress parses a hex EVM address (with or without 0x prefix).
func ParseEVMAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.New("invalid EVM address")
	}
	return common.HexToAddress(s), nil
}

// String implements the fmt.Stringer interface.
func (a EVMAddress) String() string {
	return a.Value.Hex()
}

// Set implements the flag.Value interface.
func (a *EVMAddress) Set(s string) error {
	addr, err := ParseEVMAddress(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.IsSet = true
	a.Value = addr
	return nil
}

// IsSet checks if flag was set to a non-default value.
func (f EVMAddressFlag) IsSet() bool {
	return f.Value.IsSet
}

// String returns a readable representation of this value
// (for usage defaults).
func (f EVMAddressFlag) String() string {
	return nameHelp(f.Name) + "\t" + f.Usage
}

// GetName returns the name of the flag.
func (f EVMAddressFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
func (f EVMAddressFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

func nameHelp(longName string) string {
	var names []string
	eachName(longName, func(name string) {
		if len(name) == 1 {
			names = append(names, fmt.Sprintf("-%s value", name))
		} else {
			names = append(names, fmt.Sprintf("--%s value", name))
		}
	})
	return strings.Join(names, ", ")
}
