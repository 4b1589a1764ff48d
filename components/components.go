// Package components defines ECS components for the field simulation.
package components

// ChargeID identifies a charge for the lifetime of a ChargeSet.
// IDs are assigned sequentially from zero and never reused.
type ChargeID uint32

// Charge is an idealized point charge. Magnitude is a free signed scalar;
// the UI keeps it in [-2, 2] but nothing downstream relies on that.
type Charge struct {
	ID        ChargeID `inspect:"label"`
	Magnitude float32  `inspect:"bar,min:-2,max:2"`
}

// Sign returns -1, 0 or +1 for the charge polarity.
func (c Charge) Sign() int {
	switch {
	case c.Magnitude > 0:
		return 1
	case c.Magnitude < 0:
		return -1
	}
	return 0
}
