package aks

// 帧结构常量
// 格式：STX(1) + 主机地址(1) + 读卡器地址(1) + LEN(1) + payload(var) + BCC(2, ASCII hex) + ETX(1)
const (
	STX           byte = 0x02 // 帧起始标记
	ETX           byte = 0x03 // 帧结束标记
	MasterAddress byte = 0xFF // 下行帧中的主机地址
)

const (
	HeaderSize     = 4               // STX + 两个地址字节 + LEN
	TrailerSize    = 3               // BCC(2) + ETX(1)，已计入 LEN
	MinResponseLen = 1 + TrailerSize // 应答码 + 帧尾
	DefaultTCPPort = 1001            // 网络型读卡器常用端口
)

// DefaultReaderAddress 出厂默认读卡器地址
const DefaultReaderAddress byte = 150

// 应答码（payload 首字符）
const (
	RespOK   = "o" // 操作成功
	RespFail = "h" // 操作失败（mifare 类命令）
)
