package hw

import (
	"sync"

	"github.com/mdclyburn/clockwise/clockerr"
	"periph.io/x/periph/conn/i2c"
)

// INA219 register addresses.
const (
	regConfiguration = 0x00
	regShuntVoltage  = 0x01
	regBusVoltage    = 0x02
	regPower         = 0x03
	regCurrent       = 0x04
	regCalibration   = 0x05
)

// INA219 drives a TI INA219 current sensor over I2C.
type INA219 struct {
	id  string
	dev i2c.Dev
	mu  sync.Mutex

	// currentLSBMilliamps scales a raw CURRENT register read into
	// milliamps. The sensor has no intrinsic scale until a
	// calibration value is programmed into regCalibration, so this
	// must match whatever (if any) calibration was written.
	currentLSBMilliamps float32
}

// NewINA219 constructs a driver for the device at addr on bus,
// verifying communication with a configuration-register read. A
// currentLSBMilliamps of 0 defaults to 1 (raw register counts, no
// scaling), matching an uncalibrated sensor.
func NewINA219(bus i2c.Bus, addr uint16, id string, currentLSBMilliamps float32) (*INA219, error) {
	if currentLSBMilliamps == 0 {
		currentLSBMilliamps = 1
	}
	m := &INA219{
		id:                  id,
		dev:                 i2c.Dev{Bus: bus, Addr: addr},
		currentLSBMilliamps: currentLSBMilliamps,
	}

	if _, err := m.read(regConfiguration); err != nil {
		return nil, clockerr.Wrap(clockerr.IO, "probing INA219 at init", err)
	}

	return m, nil
}

// ID implements EnergyMeter.
func (m *INA219) ID() string { return m.id }

// ReadMilliamps implements EnergyMeter, reading the CURRENT register
// and scaling it by currentLSBMilliamps.
func (m *INA219) ReadMilliamps() (float32, error) {
	raw, err := m.read(regCurrent)
	if err != nil {
		return 0, clockerr.Wrap(clockerr.IO, "reading INA219 current register", err)
	}

	m.mu.Lock()
	scale := m.currentLSBMilliamps
	m.mu.Unlock()

	return float32(raw) * scale, nil
}

// Calibrate programs the CALIBRATION register, fixing the scale that
// ReadMilliamps applies to subsequent raw reads.
func (m *INA219) Calibrate(value uint16, currentLSBMilliamps float32) error {
	if err := m.write(regCalibration, value); err != nil {
		return clockerr.Wrap(clockerr.IO, "writing INA219 calibration register", err)
	}
	m.mu.Lock()
	m.currentLSBMilliamps = currentLSBMilliamps
	m.mu.Unlock()
	return nil
}

func (m *INA219) read(reg byte) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]byte, 2)
	if err := m.dev.Tx([]byte{reg}, out); err != nil {
		return 0, err
	}
	// The two bytes combine into one 16-bit register value; this must
	// be an OR, not an AND, or every read collapses toward zero.
	return uint16(out[0])<<8 | uint16(out[1]), nil
}

func (m *INA219) write(reg byte, value uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := []byte{reg, byte(value >> 8), byte(value & 0xFF)}
	return m.dev.Tx(buf, nil)
}

var _ EnergyMeter = (*INA219)(nil)
