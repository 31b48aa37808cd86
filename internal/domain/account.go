package domain

import (
	"fmt"
	"time"
)

// OwnerType is the kind of party a bank account belongs to.
type OwnerType string

const (
	OwnerRider   OwnerType = "rider"
	OwnerDriver  OwnerType = "driver"
	OwnerCompany OwnerType = "company"
)

// AccountOwner identifies a ledger account. The company account has ID 0.
type AccountOwner struct {
	Type OwnerType
	ID   int64
}

// CompanyAccount is the single platform account.
var CompanyAccount = AccountOwner{Type: OwnerCompany}

// RiderAccount returns the wallet owner for a rider.
func RiderAccount(id int64) AccountOwner { return AccountOwner{Type: OwnerRider, ID: id} }

// DriverAccount returns the payout owner for a driver.
func DriverAccount(id int64) AccountOwner { return AccountOwner{Type: OwnerDriver, ID: id} }

func (o AccountOwner) String() string {
	if o.Type == OwnerCompany {
		return string(o.Type)
	}
	return fmt.Sprintf("%s:%d", o.Type, o.ID)
}

// BankAccount is an internal balance in integer cents.
type BankAccount struct {
	ID           int64
	Owner        AccountOwner
	BalanceCents int64
}

// LedgerReason labels why a balance moved.
type LedgerReason string

const (
	LedgerRideFare      LedgerReason = "ride_fare"
	LedgerCompanyCredit LedgerReason = "company_credit"
	LedgerDriverPayout  LedgerReason = "driver_payout"
)

// LedgerEntry journals one signed balance change.
type LedgerEntry struct {
	ID         int64
	AccountID  int64
	RideID     int64
	DeltaCents int64
	Reason     LedgerReason
	CreatedAt  time.Time
}
