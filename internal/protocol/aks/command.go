package aks

import "strconv"

// Command 命令码（payload 首字节）
type Command byte

const (
	CmdCheckDeviceStatus    Command = 10
	CmdReadCard             Command = 11
	CmdSetDeviceOrientation Command = 13
	CmdAccessOperation      Command = 17
	CmdSetDeviceDateTime    Command = 21
	CmdGetDeviceDateTime    Command = 22
	CmdSetDeviceWorkType    Command = 24
	CmdSendCard             Command = 31
	CmdClearAllCards        Command = 32
	CmdDeleteCard           Command = 33
	CmdSelectCard           Command = 52
	CmdCardLogin            Command = 54
	CmdReadDataHex          Command = 55
	CmdReadValue            Command = 56
	CmdWriteDataHex         Command = 58
	CmdWriteValue           Command = 59
	CmdIncrement            Command = 62
	CmdDecrement            Command = 63
	CmdWriteDataString      Command = 70
	CmdReadDataString       Command = 71
	CmdWriteDeviceProtocol  Command = 101
	CmdDeviceLogHandled     Command = 111 // 设备不回应答
	CmdCardCount            Command = 248
	CmdLogCount             Command = 249
	CmdClearAllAccessLogs   Command = 250
)

// ClearAccessLogsParam 清空刷卡记录命令的固定参数
const ClearAccessLogsParam = "DEL"

var commandNames = map[Command]string{
	CmdCheckDeviceStatus:    "check_device_status",
	CmdReadCard:             "read_card",
	CmdSetDeviceOrientation: "set_device_orientation",
	CmdAccessOperation:      "access_operation",
	CmdSetDeviceDateTime:    "set_device_datetime",
	CmdGetDeviceDateTime:    "get_device_datetime",
	CmdSetDeviceWorkType:    "set_device_work_type",
	CmdSendCard:             "send_card",
	CmdClearAllCards:        "clear_all_cards",
	CmdDeleteCard:           "delete_card",
	CmdSelectCard:           "select_card",
	CmdCardLogin:            "card_login",
	CmdReadDataHex:          "read_data_hex",
	CmdReadValue:            "read_value",
	CmdWriteDataHex:         "write_data_hex",
	CmdWriteValue:           "write_value",
	CmdIncrement:            "increment",
	CmdDecrement:            "decrement",
	CmdWriteDataString:      "write_data_string",
	CmdReadDataString:       "read_data_string",
	CmdWriteDeviceProtocol:  "write_device_protocol",
	CmdDeviceLogHandled:     "device_log_handled",
	CmdCardCount:            "card_count",
	CmdLogCount:             "log_count",
	CmdClearAllAccessLogs:   "clear_all_access_logs",
}

// String 返回命令的小写名称，未知命令返回 cmd_<id>
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "cmd_" + strconv.Itoa(int(c))
}

// ParseCommand 按名称或十进制数字解析命令
func ParseCommand(s string) (Command, bool) {
	for c, name := range commandNames {
		if name == s {
			return c, true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return 0, false
	}
	return Command(n), true
}

// DeviceProtocol 设备通信模式
type DeviceProtocol byte

const (
	ProtocolClient DeviceProtocol = 0
	ProtocolServer DeviceProtocol = 1
)

// Param 返回命令参数文本
func (p DeviceProtocol) Param() string { return strconv.Itoa(int(p)) }

func (p DeviceProtocol) String() string {
	switch p {
	case ProtocolClient:
		return "client"
	case ProtocolServer:
		return "server"
	}
	return "protocol_" + strconv.Itoa(int(p))
}

// WorkType 设备工作模式
type WorkType byte

const (
	WorkOnline  WorkType = 1
	WorkOffline WorkType = 2
	WorkOnOff   WorkType = 3
)

func (w WorkType) Param() string { return strconv.Itoa(int(w)) }

func (w WorkType) String() string {
	switch w {
	case WorkOnline:
		return "online"
	case WorkOffline:
		return "offline"
	case WorkOnOff:
		return "onoff"
	}
	return "work_" + strconv.Itoa(int(w))
}

// Orientation 通行方向
type Orientation byte

const (
	OrientationIn    Orientation = 1
	OrientationOut   Orientation = 2
	OrientationInOut Orientation = 3
)

func (o Orientation) Param() string { return strconv.Itoa(int(o)) }

func (o Orientation) String() string {
	switch o {
	case OrientationIn:
		return "in"
	case OrientationOut:
		return "out"
	case OrientationInOut:
		return "inout"
	}
	return "orientation_" + strconv.Itoa(int(o))
}

// ParseWorkType 解析配置中的工作模式名称
func ParseWorkType(s string) (WorkType, bool) {
	for _, w := range []WorkType{WorkOnline, WorkOffline, WorkOnOff} {
		if w.String() == s {
			return w, true
		}
	}
	return 0, false
}

// ParseDeviceProtocol 解析配置中的通信模式名称
func ParseDeviceProtocol(s string) (DeviceProtocol, bool) {
	for _, p := range []DeviceProtocol{ProtocolClient, ProtocolServer} {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// ParseOrientation 解析配置中的方向名称
func ParseOrientation(s string) (Orientation, bool) {
	for _, o := range []Orientation{OrientationIn, OrientationOut, OrientationInOut} {
		if o.String() == s {
			return o, true
		}
	}
	return 0, false
}
