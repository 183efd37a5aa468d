package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid config")

// Validate 校验读卡器与网关配置
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Readers))
	for i, r := range c.Readers {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("readers[%d]: name is required", i))
		} else if seen[r.Name] {
			errs = append(errs, fmt.Errorf("readers[%d]: duplicate name %q", i, r.Name))
		}
		seen[r.Name] = true
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("readers[%d]: %w", i, err))
		}
	}
	if c.Gateway.PollInterval < 0 {
		errs = append(errs, errors.New("gateway.pollInterval must not be negative"))
	}
	switch c.Access.Source {
	case AccessSourceMemory, AccessSourceDatabase:
	case AccessSourceYAML:
		if c.Access.SeedFile == "" {
			errs = append(errs, errors.New("access.seedFile is required for yaml source"))
		}
	default:
		errs = append(errs, fmt.Errorf("access.source %q is not supported", c.Access.Source))
	}
	if c.Access.Source == AccessSourceDatabase && !c.Database.Enabled {
		errs = append(errs, errors.New("access.source database requires database.enabled"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Validate 校验单个读卡器
func (r ReaderConfig) Validate() error {
	switch r.Transport {
	case TransportTCP:
		if r.Host == "" {
			return errors.New("host is required for tcp transport")
		}
		if r.Port <= 0 || r.Port > 65535 {
			return fmt.Errorf("port %d out of range", r.Port)
		}
	case TransportSerial:
		if r.SerialPort == "" {
			return errors.New("serialPort is required for serial transport")
		}
		if r.BaudRate <= 0 {
			return fmt.Errorf("baudRate %d is invalid", r.BaudRate)
		}
	default:
		return fmt.Errorf("transport %q is not supported", r.Transport)
	}
	if r.Address < 0 || r.Address > 255 {
		return fmt.Errorf("address %d out of range", r.Address)
	}
	if r.Timeout < 0 {
		return fmt.Errorf("timeout %s must not be negative", r.Timeout)
	}
	if _, ok := aks.ParseWorkType(r.WorkType); !ok {
		return fmt.Errorf("workType %q is not supported", r.WorkType)
	}
	if _, ok := aks.ParseDeviceProtocol(r.DeviceProtocol); !ok {
		return fmt.Errorf("deviceProtocol %q is not supported", r.DeviceProtocol)
	}
	if r.Orientation != "" {
		if _, ok := aks.ParseOrientation(r.Orientation); !ok {
			return fmt.Errorf("orientation %q is not supported", r.Orientation)
		}
	}
	return nil
}

// EffectiveTimeout 读写超时，noTimeout 时为 0（不限时）
func (r ReaderConfig) EffectiveTimeout() time.Duration {
	if r.NoTimeout {
		return 0
	}
	return r.Timeout
}

// ReaderAddress 读卡器地址字节
func (r ReaderConfig) ReaderAddress() byte { return byte(r.Address) }

// Location 设备时钟时区
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app.timezone: %w", err)
	}
	return loc, nil
}

// Reader 按名称查找读卡器配置
func (c *Config) Reader(name string) (ReaderConfig, bool) {
	for _, r := range c.Readers {
		if r.Name == name {
			return r, true
		}
	}
	return ReaderConfig{}, false
}
