/**
 * @description
 * Fixed-point valuation math shared by the lending engine and the repository.
 * Oracle prices carry 8 fixed decimals; all intermediate products go through
 * math/big so collateral * price never overflows int64 before the final
 * division.
 */

package domain

import "math/big"

// PriceDecimals is the fixed decimal precision of oracle price answers.
const PriceDecimals = 8

// priceScale = 10^PriceDecimals.
var priceScale = big.NewInt(100_000_000)

const bpsDenominator = 10_000

// MaxBorrow returns the borrow ceiling for a position:
//
//	floor(collateral * price * ltvBps / 10000 / 10^8)
//
// Rounding down is conservative for the protocol. The result saturates at
// MaxInt64, which is unreachable for realistic collateral and prices but
// keeps the function total.
func MaxBorrow(collateral, price, ltvBps int64) int64 {
	if collateral <= 0 || price <= 0 || ltvBps <= 0 {
		return 0
	}
	v := new(big.Int).Mul(big.NewInt(collateral), big.NewInt(price))
	v.Mul(v, big.NewInt(ltvBps))
	v.Quo(v, big.NewInt(bpsDenominator))
	v.Quo(v, priceScale)
	if !v.IsInt64() {
		return int64(^uint64(0) >> 1)
	}
	return v.Int64()
}

// PositionHealthy reports whether the borrowed amount is within the ceiling
// at the given price.
func PositionHealthy(collateral, borrowed, price, ltvBps int64) bool {
	return borrowed <= MaxBorrow(collateral, price, ltvBps)
}

// ProRataShare returns floor(accrued * balance / supply), one holder's cut of
// a rent distribution.
func ProRataShare(accrued, balance, supply int64) int64 {
	if accrued <= 0 || balance <= 0 || supply <= 0 {
		return 0
	}
	v := new(big.Int).Mul(big.NewInt(accrued), big.NewInt(balance))
	v.Quo(v, big.NewInt(supply))
	return v.Int64()
}
