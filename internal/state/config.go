package state

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/till/currency"
	"github.com/temoto/till/hardware/input"
	"github.com/temoto/till/hardware/led"
	"github.com/temoto/till/hardware/uart"
	"github.com/temoto/till/helpers"
	"github.com/temoto/till/internal/till"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		PinChip        string         `hcl:"pin_chip"`
		ButtonSettleMs int            `hcl:"button_settle_ms"`
		ButtonPollMs   int            `hcl:"button_poll_ms"`
		Buttons        []ButtonConfig `hcl:"button"`
		ButtonVoid     ControlConfig  `hcl:"button_void"`
		ButtonTotal    ControlConfig  `hcl:"button_total"`
		Keyboard       struct {
			Enable bool   `hcl:"enable"`
			Device string `hcl:"device"`
		}
		Led struct {
			Spi       string `hcl:"spi"`
			SpiMode   int    `hcl:"spi_mode"`
			SpiSpeed  string `hcl:"spi_speed"`
			CoreClock string `hcl:"core_clock"`
			Length    int    `hcl:"length"`
			LogDebug  bool   `hcl:"log_debug"`
		}
		Printer struct {
			Device        string `hcl:"device"`
			Baud          int    `hcl:"baud"`
			ReadTimeoutMs int    `hcl:"read_timeout_ms"`
		}
	}

	Till struct {
		PostMs      int  `hcl:"post_ms"`
		AlertMs     int  `hcl:"alert_ms"`
		AlertRepeat int  `hcl:"alert_repeat"`
		LogDebug    bool `hcl:"log_debug"`
	}

	Receipt struct {
		QRText string `hcl:"qr_text"`
		QRSize int    `hcl:"qr_size"`
	}

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// ButtonConfig Name is item identity and receipt icon.
type ButtonConfig struct {
	Name  string `hcl:"name,key"`
	Pin   int    `hcl:"pin"`
	Price int    `hcl:"price"`
	Key   int    `hcl:"key"`
}

type ControlConfig struct {
	Pin int `hcl:"pin"`
	Key int `hcl:"key"`
}

const (
	DefaultPinChip  = "/dev/gpiochip0"
	DefaultLedSpi   = "/dev/spidev0.0"
	DefaultPrinter  = "/dev/serial0"
	DefaultKeyboard = "/dev/input/event0"
	DefaultQRSize   = 192
)

// DefaultButtons is front panel layout, keys are 1..8 on keyboard.
var DefaultButtons = []ButtonConfig{
	{Name: "garlic", Pin: 20, Price: 1, Key: 2},
	{Name: "carrot", Pin: 19, Price: 2, Key: 3},
	{Name: "corn", Pin: 18, Price: 3, Key: 4},
	{Name: "tomato", Pin: 17, Price: 4, Key: 5},
	{Name: "mushroom", Pin: 11, Price: 5, Key: 6},
	{Name: "aubergine", Pin: 12, Price: 6, Key: 7},
	{Name: "pumpkin", Pin: 13, Price: 7, Key: 8},
	{Name: "croissant", Pin: 14, Price: 8, Key: 9},
}

var (
	DefaultButtonVoid  = ControlConfig{Pin: 16, Key: 14} // backspace
	DefaultButtonTotal = ControlConfig{Pin: 15, Key: 28} // enter
)

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig merges sources in order, later values overwrite earlier, then applies defaults and validates.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.New("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, err
		}
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) != 0 {
		return c, helpers.FoldErrors(errs)
	}
	c.setDefaults()
	return c, c.Validate()
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

func (c *Config) setDefaults() {
	h := &c.Hardware
	if h.PinChip == "" {
		h.PinChip = DefaultPinChip
	}
	if len(h.Buttons) == 0 {
		h.Buttons = append([]ButtonConfig(nil), DefaultButtons...)
	}
	if h.ButtonVoid.Pin == 0 && h.ButtonVoid.Key == 0 {
		h.ButtonVoid = DefaultButtonVoid
	}
	if h.ButtonTotal.Pin == 0 && h.ButtonTotal.Key == 0 {
		h.ButtonTotal = DefaultButtonTotal
	}
	if h.Keyboard.Device == "" {
		h.Keyboard.Device = DefaultKeyboard
	}
	if h.Led.Spi == "" {
		h.Led.Spi = DefaultLedSpi
	}
	if h.Led.Length == 0 {
		h.Led.Length = 1
	}
	if h.Printer.Device == "" {
		h.Printer.Device = DefaultPrinter
	}
	if h.Printer.Baud == 0 {
		h.Printer.Baud = uart.DefaultBaud
	}
	if c.Till.AlertRepeat == 0 {
		c.Till.AlertRepeat = till.DefaultTimings.AlertRepeat
	}
	if c.Receipt.QRSize == 0 {
		c.Receipt.QRSize = DefaultQRSize
	}
}

func (c *Config) Validate() error {
	errs := make([]error, 0)
	seenPin := make(map[int]string)
	seenName := make(map[string]struct{})
	check := func(b ButtonConfig, produce bool) {
		tag := fmt.Sprintf("config hardware.button name=%s", b.Name)
		if b.Pin < 0 {
			errs = append(errs, errors.NotValidf("%s pin=%d", tag, b.Pin))
		}
		if other, ok := seenPin[b.Pin]; ok && b.Pin != 0 {
			errs = append(errs, errors.NotValidf("%s pin=%d already used by %s", tag, b.Pin, other))
		}
		seenPin[b.Pin] = b.Name
		if b.Key < 0 || b.Key > 0xffff {
			errs = append(errs, errors.NotValidf("%s key=%d", tag, b.Key))
		}
		if b.Pin == 0 && b.Key == 0 {
			errs = append(errs, errors.NotValidf("%s neither pin nor key", tag))
		}
		if !produce {
			return
		}
		if b.Name == "" {
			errs = append(errs, errors.NotValidf("config hardware.button without name"))
		}
		if _, ok := seenName[b.Name]; ok {
			errs = append(errs, errors.NotValidf("%s duplicate", tag))
		}
		seenName[b.Name] = struct{}{}
		if b.Price <= 0 {
			errs = append(errs, errors.NotValidf("%s price=%d", tag, b.Price))
		} else if _, err := currency.FromInt(b.Price); err != nil {
			errs = append(errs, errors.Annotate(err, tag))
		}
	}
	for _, b := range c.Hardware.Buttons {
		check(b, true)
	}
	check(ButtonConfig{Name: "void", Pin: c.Hardware.ButtonVoid.Pin, Key: c.Hardware.ButtonVoid.Key}, false)
	check(ButtonConfig{Name: "total", Pin: c.Hardware.ButtonTotal.Pin, Key: c.Hardware.ButtonTotal.Key}, false)

	if c.Hardware.Led.Length <= 0 {
		errs = append(errs, errors.NotValidf("config hardware.led.length=%d", c.Hardware.Led.Length))
	}
	if c.Hardware.Led.SpiMode < 0 || c.Hardware.Led.SpiMode > 3 {
		errs = append(errs, errors.NotValidf("config hardware.led.spi_mode=%d", c.Hardware.Led.SpiMode))
	}
	if _, _, err := c.LedConfig().Clock(); err != nil {
		errs = append(errs, errors.Annotate(err, "config hardware.led"))
	}
	if c.Hardware.Printer.Baud < 0 {
		errs = append(errs, errors.NotValidf("config hardware.printer.baud=%d", c.Hardware.Printer.Baud))
	}
	if c.Till.PostMs < 0 || c.Till.AlertMs < 0 || c.Till.AlertRepeat < 0 {
		errs = append(errs, errors.NotValidf("config till timings negative"))
	}
	if c.Receipt.QRSize < 0 {
		errs = append(errs, errors.NotValidf("config receipt.qr_size=%d", c.Receipt.QRSize))
	}
	return helpers.FoldErrors(errs)
}

// Bindings builds input table: produce buttons in config order, then void and total.
func (c *Config) Bindings() []input.Binding {
	bs := make([]input.Binding, 0, len(c.Hardware.Buttons)+2)
	for _, b := range c.Hardware.Buttons {
		price, _ := currency.FromInt(b.Price)
		bs = append(bs, input.Binding{
			Name:  b.Name,
			Pin:   uint32(b.Pin),
			Key:   uint16(b.Key),
			Event: types.InputEvent{Kind: types.InputProduce, Item: types.Item(b.Name), Price: price},
		})
	}
	void, total := c.Hardware.ButtonVoid, c.Hardware.ButtonTotal
	bs = append(bs,
		input.Binding{Name: "void", Pin: uint32(void.Pin), Key: uint16(void.Key), Event: types.InputEvent{Kind: types.InputVoid}},
		input.Binding{Name: "total", Pin: uint32(total.Pin), Key: uint16(total.Key), Event: types.InputEvent{Kind: types.InputTotal}},
	)
	return bs
}

func (c *Config) Items() []types.Item {
	items := make([]types.Item, len(c.Hardware.Buttons))
	for i, b := range c.Hardware.Buttons {
		items[i] = types.Item(b.Name)
	}
	return items
}

func (c *Config) ButtonSettle() time.Duration {
	return helpers.IntMillisecondDefault(c.Hardware.ButtonSettleMs, input.DefaultSettle)
}

func (c *Config) ButtonPoll() time.Duration {
	return helpers.IntMillisecondDefault(c.Hardware.ButtonPollMs, input.DefaultPoll)
}

func (c *Config) TillTimings() till.Timings {
	return till.Timings{
		Post:        helpers.IntMillisecondDefault(c.Till.PostMs, till.DefaultTimings.Post),
		Alert:       helpers.IntMillisecondDefault(c.Till.AlertMs, till.DefaultTimings.Alert),
		AlertRepeat: c.Till.AlertRepeat,
	}
}

func (c *Config) LedConfig() led.Config {
	return led.Config{
		SpiBus:    c.Hardware.Led.Spi,
		SpiMode:   c.Hardware.Led.SpiMode,
		SpiSpeed:  c.Hardware.Led.SpiSpeed,
		CoreClock: c.Hardware.Led.CoreClock,
		Length:    c.Hardware.Led.Length,
	}
}

func (c *Config) UartConfig() uart.Config {
	return uart.Config{
		Device:      c.Hardware.Printer.Device,
		Baud:        c.Hardware.Printer.Baud,
		ReadTimeout: helpers.IntMillisecondDefault(c.Hardware.Printer.ReadTimeoutMs, uart.DefaultReadTimeout),
	}
}
