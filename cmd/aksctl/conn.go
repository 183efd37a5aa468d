package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/logging"
	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/reader"
	"github.com/taoyao-code/aks-gateway/internal/transport"
)

// connectTimeout 建立连接的最长等待时间
const connectTimeout = 5 * time.Second

// connOptions 读卡器连接参数
type connOptions struct {
	tcp      string
	serial   string
	baud     int
	addr     int
	timeout  time.Duration
	timezone string
	verify   bool
	verbose  bool

	// newTransport 测试时替换
	newTransport func(o *connOptions, log *zap.Logger) (transport.Transport, error)
}

func (o *connOptions) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.tcp, "tcp", "", "reader TCP endpoint (host:port)")
	f.StringVar(&o.serial, "serial", "", "serial port device (e.g. /dev/ttyUSB0)")
	f.IntVar(&o.baud, "baud", 9600, "serial baud rate")
	f.IntVar(&o.addr, "addr", int(aks.DefaultReaderAddress), "reader address (0-255)")
	f.DurationVar(&o.timeout, "timeout", transport.DefaultTimeout, "per-read/write timeout, 0 waits forever")
	f.StringVar(&o.timezone, "tz", "Local", "device clock time zone")
	f.BoolVar(&o.verify, "verify-checksum", false, "reject responses with a bad checksum")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log every exchange to stderr")
}

func defaultTransport(o *connOptions, log *zap.Logger) (transport.Transport, error) {
	switch {
	case o.tcp != "" && o.serial != "":
		return nil, errors.New("--tcp and --serial are mutually exclusive")
	case o.tcp != "":
		host, portStr, err := net.SplitHostPort(o.tcp)
		if err != nil {
			return nil, fmt.Errorf("invalid --tcp %q: %w", o.tcp, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid --tcp port %q", portStr)
		}
		return transport.NewTCP(host, port, transport.WithLogger(log)), nil
	case o.serial != "":
		return transport.NewSerial(o.serial, o.baud, transport.WithLogger(log)), nil
	}
	return nil, errors.New("one of --tcp or --serial is required")
}

// job 在已连接的会话上执行
type job func(ctx context.Context, s *reader.Session, addr byte) error

// run 打开会话、执行并断开
func (o *connOptions) run(cmd *cobra.Command, fn job) error {
	if o.addr < 0 || o.addr > 255 {
		return fmt.Errorf("--addr %d out of range", o.addr)
	}
	if err := transport.ValidateTimeout(o.timeout); err != nil {
		return err
	}
	loc := time.Local
	if o.timezone != "" && o.timezone != "Local" {
		var err error
		if loc, err = time.LoadLocation(o.timezone); err != nil {
			return fmt.Errorf("invalid --tz: %w", err)
		}
	}

	log := logging.NewCLILogger(o.verbose)
	defer func() { _ = log.Sync() }()

	newT := o.newTransport
	if newT == nil {
		newT = defaultTransport
	}
	t, err := newT(o, log)
	if err != nil {
		return err
	}
	s := reader.New(t,
		reader.WithLogger(log),
		reader.WithTimeout(o.timeout),
		reader.WithVerifyChecksum(o.verify),
		reader.WithLocation(loc))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	err = s.Connect(cctx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect %s: %w", t.Endpoint(), err)
	}
	defer func() { _ = s.Disconnect() }()

	return fn(ctx, s, byte(o.addr))
}
