package aks

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame 无法从缓冲区中提取 payload
	ErrMalformedFrame = errors.New("malformed frame")

	ErrNoStartMarker    = fmt.Errorf("%w: no start marker", ErrMalformedFrame)
	ErrNoEndMarker      = fmt.Errorf("%w: no end marker", ErrMalformedFrame)
	ErrBadLength        = fmt.Errorf("%w: length out of range", ErrMalformedFrame)
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrMalformedFrame)
)

// Encode 构造下行帧
// LEN = len(payload)+3，按单字节写入；帧长上限由设备决定，这里不做限制。
func Encode(readerAddr byte, payload []byte) []byte {
	frame := make([]byte, 0, HeaderSize+len(payload)+TrailerSize)
	frame = append(frame, STX, MasterAddress, readerAddr, byte(len(payload)+TrailerSize))
	frame = append(frame, payload...)
	bcc := Checksum(frame)
	frame = append(frame, bcc[0], bcc[1], ETX)
	return frame
}

// Decode 从上行缓冲区中提取 payload（不校验 BCC）
func Decode(buf []byte) ([]byte, error) {
	return Codec{}.Decode(buf)
}

// Codec 帧编解码器
// VerifyChecksum 为 true 时解码会校验 BCC；默认与设备现有行为保持一致，不校验。
type Codec struct {
	VerifyChecksum bool
}

// Encode 同包级 Encode
func (c Codec) Encode(readerAddr byte, payload []byte) []byte {
	return Encode(readerAddr, payload)
}

// Decode 定位首个 STX，其后需存在 ETX；按 STX+3 处的 LEN 截取 payload。
// 注意：ETX 的位置不与 LEN 交叉校验。
func (c Codec) Decode(buf []byte) ([]byte, error) {
	start := bytes.IndexByte(buf, STX)
	if start < 0 {
		return nil, ErrNoStartMarker
	}
	rest := buf[start+1:]
	if bytes.IndexByte(rest, ETX) < 0 {
		return nil, ErrNoEndMarker
	}
	// rest: 主机地址、读卡器地址、LEN、payload...
	if len(rest) < HeaderSize-1 {
		return nil, ErrBadLength
	}
	n := int(rest[2])
	if n < TrailerSize || n > len(rest) {
		return nil, ErrBadLength
	}
	payload := rest[HeaderSize-1 : n]

	if c.VerifyChecksum {
		if n+2 > len(rest) {
			return nil, ErrBadLength
		}
		want := Checksum(buf[start : start+1+n])
		if got := string(rest[n : n+2]); got != want {
			return nil, fmt.Errorf("%w: got %q, want %q", ErrChecksumMismatch, got, want)
		}
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}
