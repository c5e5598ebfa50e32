package host

import (
	"errors"
	"fmt"

	"github.com/0xPolygon/edge-xcc/types"
)

// MaxPrepaidGas is the most gas a single function call may be given
const MaxPrepaidGas = 300 * types.Tgas

var ErrExceededPrepaidGas = errors.New("exceeded the prepaid gas")

// Meter accounts the gas of one function call. Burnt gas is spent by the call
// itself; used gas also includes the gas attached to the receipts it created.
type Meter struct {
	prepaid types.NearGas
	burnt   types.NearGas
	used    types.NearGas
}

func NewMeter(prepaid types.NearGas) *Meter {
	return &Meter{prepaid: prepaid}
}

// Burn spends gas on work done by the current call
func (m *Meter) Burn(gas types.NearGas) error {
	if err := m.charge(gas); err != nil {
		return err
	}

	m.burnt += gas

	return nil
}

// Attach reserves gas for a receipt created by the current call
func (m *Meter) Attach(gas types.NearGas) error {
	return m.charge(gas)
}

func (m *Meter) charge(gas types.NearGas) error {
	if gas > m.prepaid-m.used {
		return fmt.Errorf("%w: need %d, %d left of %d", ErrExceededPrepaidGas, gas, m.prepaid-m.used, m.prepaid)
	}

	m.used += gas

	return nil
}

func (m *Meter) Prepaid() types.NearGas {
	return m.prepaid
}

func (m *Meter) Burnt() types.NearGas {
	return m.burnt
}

func (m *Meter) Used() types.NearGas {
	return m.used
}

func (m *Meter) Remaining() types.NearGas {
	return m.prepaid - m.used
}

// Checkpoint captures the meter so a reverted execution can be rolled back
func (m *Meter) Checkpoint() Meter {
	return *m
}

// Restore rolls the meter back to a checkpoint but keeps the burnt gas,
// reverted work still has to be paid for
func (m *Meter) Restore(c Meter) {
	attached := (m.used - m.burnt) - (c.used - c.burnt)
	m.used -= attached
}
