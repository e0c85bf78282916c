package syssonic

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/distatus/battery"
	St "github.com/maroda/syssonic/types"
)

// ProbeBattery checks that the OS exposes at least one battery.
func ProbeBattery() error {
	bats, err := battery.GetAll()
	if len(bats) == 0 {
		if err != nil {
			return fmt.Errorf("battery probe: %w", err)
		}
		return errors.New("no batteries present")
	}
	return nil
}

// ReadBattery samples the first battery.
func ReadBattery() (*St.Battery, error) {
	bat, err := battery.Get(0)
	if err != nil {
		return nil, fmt.Errorf("battery read: %w", err)
	}
	return ConvertBattery(bat), nil
}

// ConvertBattery maps an OS battery record into the snapshot type.
// The power rate is positive while charging and negative otherwise,
// and time estimates are derived from the charge rate.
func ConvertBattery(bat *battery.Battery) *St.Battery {
	var charge float64
	if bat.Full > 0 {
		charge = bat.Current / bat.Full * 100.0
	}

	state := St.BatteryUnknown
	switch bat.State {
	case battery.Charging:
		state = St.BatteryCharging
	case battery.Discharging:
		state = St.BatteryDischarging
	case battery.Full:
		state = St.BatteryFull
	case battery.Empty:
		state = St.BatteryEmpty
	}

	rate := math.Abs(bat.ChargeRate)
	if state != St.BatteryCharging {
		rate = -rate
	}

	b := &St.Battery{
		ChargePercent: charge,
		State:         state,
		PowerRate:     rate,
	}

	if bat.ChargeRate > 0 {
		switch state {
		case St.BatteryCharging:
			hours := (bat.Full - bat.Current) / bat.ChargeRate
			d := time.Duration(hours * float64(time.Hour))
			b.TimeToFull = &d
		case St.BatteryDischarging:
			hours := bat.Current / bat.ChargeRate
			d := time.Duration(hours * float64(time.Hour))
			b.TimeToEmpty = &d
		}
	}

	return b
}
