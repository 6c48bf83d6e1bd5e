package pcf8563

import (
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"timerhal-go/errcode"
	"timerhal-go/ltimer"
)

// Source selects the countdown clock.
type Source uint8

const (
	// Src64Hz ticks every 15.6 ms and spans up to four seconds.
	Src64Hz Source = iota
	// Src4096Hz ticks every 244 µs and spans up to 62 ms.
	Src4096Hz
	// Src1Hz ticks every second and spans up to 255 s.
	Src1Hz
)

// td returns the TD field encoding for the source.
func (s Source) td() uint8 {
	switch s {
	case Src4096Hz:
		return 0
	case Src1Hz:
		return 2
	default:
		return 1
	}
}

// Frequency returns the tick rate of the source.
func (s Source) Frequency() physic.Frequency {
	switch s {
	case Src4096Hz:
		return 4096 * physic.Hertz
	case Src1Hz:
		return physic.Hertz
	default:
		return 64 * physic.Hertz
	}
}

// Config describes the device on its bus.
type Config struct {
	// Address defaults to the fixed part address when zero.
	Address uint16

	Source Source
}

// Validate reports whether the configuration can drive a device.
func (c *Config) Validate() error {
	if c.Source > Src1Hz {
		return &errcode.E{C: errcode.InvalidArgument, Op: "pcf8563.Validate", Msg: "unknown countdown source"}
	}
	return nil
}

// Device is the countdown timer of one PCF8563.
type Device struct {
	i2c     drivers.I2C
	addr    uint16
	src     Source
	oneshot bool

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

// New wraps a device on the bus. The bus must already be configured;
// the device is not touched until Start.
func New(i2c drivers.I2C, cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	addr := cfg.Address
	if addr == 0 {
		addr = Address
	}
	return &Device{i2c: i2c, addr: addr, src: cfg.Source}, nil
}

// Start wakes the source clock, selects the countdown source and
// routes the timer flag to the interrupt pin as a level. The countdown
// itself stays disabled until armed.
func (d *Device) Start() error {
	if err := d.program(); err != nil {
		return &errcode.E{C: errcode.DeviceNotReady, Op: "pcf8563.Start", Err: err}
	}
	d.oneshot = false
	return nil
}

func (d *Device) program() error {
	if err := d.update(regCtrl1, 0, ctl1Stop); err != nil {
		return err
	}
	if err := d.writeReg(regTimerCtrl, d.src.td()); err != nil {
		return err
	}
	return d.update(regCtrl2, ctl2TIE, ctl2TF|ctl2TITP)
}

// Stop disables the countdown and takes the timer off the interrupt
// pin. Alarm wiring owned by others is left alone.
func (d *Device) Stop() error {
	if err := d.writeReg(regTimerCtrl, d.src.td()); err != nil {
		return &errcode.E{C: errcode.Error, Op: "pcf8563.Stop", Err: err}
	}
	if err := d.update(regCtrl2, 0, ctl2TIE|ctl2TF); err != nil {
		return &errcode.E{C: errcode.Error, Op: "pcf8563.Stop", Err: err}
	}
	d.oneshot = false
	return nil
}

// Frequency returns the tick rate of the selected source.
func (d *Device) Frequency() physic.Frequency {
	return d.src.Frequency()
}

// Arm programs a firing ticks from now. The countdown reloads itself,
// so periodic requests need no further programming; one-shots are
// disabled when acknowledged.
func (d *Device) Arm(ticks uint64, periodic bool) error {
	if ticks > MaxTicks {
		return errcode.Range
	}
	if ticks == 0 {
		ticks = 1
	}
	if err := d.armRegs(uint8(ticks)); err != nil {
		return &errcode.E{C: errcode.Error, Op: "pcf8563.Arm", Err: err}
	}
	d.oneshot = !periodic
	return nil
}

func (d *Device) armRegs(ticks uint8) error {
	if err := d.writeReg(regTimerCtrl, d.src.td()); err != nil {
		return err
	}
	if err := d.writeReg(regTimer, ticks); err != nil {
		return err
	}
	if err := d.update(regCtrl2, 0, ctl2TF); err != nil {
		return err
	}
	return d.writeReg(regTimerCtrl, tmrEnable|d.src.td())
}

// Disarm halts the countdown so no firing is outstanding.
func (d *Device) Disarm() error {
	if err := d.writeReg(regTimerCtrl, d.src.td()); err != nil {
		return &errcode.E{C: errcode.Error, Op: "pcf8563.Disarm", Err: err}
	}
	if err := d.update(regCtrl2, 0, ctl2TF); err != nil {
		return &errcode.E{C: errcode.Error, Op: "pcf8563.Disarm", Err: err}
	}
	d.oneshot = false
	return nil
}

// AckIRQ drops the timer flag, releasing the level interrupt. A
// one-shot firing also halts the countdown so the self-reload cannot
// fire it again.
func (d *Device) AckIRQ() error {
	if err := d.update(regCtrl2, 0, ctl2TF); err != nil {
		return &errcode.E{C: errcode.Error, Op: "pcf8563.AckIRQ", Err: err}
	}
	if d.oneshot {
		if err := d.writeReg(regTimerCtrl, d.src.td()); err != nil {
			return &errcode.E{C: errcode.Error, Op: "pcf8563.AckIRQ", Err: err}
		}
		d.oneshot = false
	}
	return nil
}

// I2C 8-bit register operations.

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) writeReg(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	return d.i2c.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) update(reg, set, clear byte) error {
	cur, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, (cur|set)&^clear)
}

var _ ltimer.Armer = (*Device)(nil)
