package program

import (
	"encoding/binary"
	"math"

	solanago "github.com/gagliardetto/solana-go"
)

const (
	computeBudgetSetUnitLimit = 2
	computeBudgetSetUnitPrice = 3
)

// ComputeBudgetConfig controls the compute budget instructions prepended to transfers.
type ComputeBudgetConfig struct {
	// Enabled adds SetComputeUnitLimit and SetComputeUnitPrice instructions.
	Enabled bool `yaml:"enabled"`
	// UnitMargin multiplies simulated units to get the limit, e.g. 1.1 for +10%.
	UnitMargin float64 `yaml:"unit_margin"`
	// MicroLamports is the priority fee per compute unit.
	MicroLamports uint64 `yaml:"micro_lamports"`
	// DefaultUnits is used when simulation does not report consumption.
	DefaultUnits uint64 `yaml:"default_units"`
}

// DefaultComputeBudgetConfig returns the defaults: 10% margin, 1 microlamport, 200k units.
func DefaultComputeBudgetConfig() ComputeBudgetConfig {
	return ComputeBudgetConfig{
		Enabled:       true,
		UnitMargin:    1.1,
		MicroLamports: 1,
		DefaultUnits:  200_000,
	}
}

// UnitLimit returns ceil(units * margin), falling back to DefaultUnits when
// consumed is unknown. The result is capped to the u32 range.
func (c ComputeBudgetConfig) UnitLimit(consumed *uint64) uint32 {
	units := c.DefaultUnits
	if consumed != nil {
		units = *consumed
	}
	margin := c.UnitMargin
	if margin <= 0 {
		margin = 1
	}
	limit := math.Ceil(float64(units) * margin)
	if limit > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(limit)
}

// Instructions returns the limit and price instructions for consumed units.
func (c ComputeBudgetConfig) Instructions(consumed *uint64) []solanago.Instruction {
	return []solanago.Instruction{
		SetComputeUnitLimit(c.UnitLimit(consumed)),
		SetComputeUnitPrice(c.MicroLamports),
	}
}

// SetComputeUnitLimit caps the compute units a transaction may consume.
func SetComputeUnitLimit(units uint32) solanago.Instruction {
	data := make([]byte, 5)
	data[0] = computeBudgetSetUnitLimit
	binary.LittleEndian.PutUint32(data[1:], units)
	return solanago.NewInstruction(ComputeBudgetProgramID, solanago.AccountMetaSlice{}, data)
}

// SetComputeUnitPrice sets the priority fee in microlamports per compute unit.
func SetComputeUnitPrice(microLamports uint64) solanago.Instruction {
	data := make([]byte, 9)
	data[0] = computeBudgetSetUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return solanago.NewInstruction(ComputeBudgetProgramID, solanago.AccountMetaSlice{}, data)
}
