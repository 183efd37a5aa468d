package aks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_AccessOperation(t *testing.T) {
	payload := append([]byte{byte(CmdAccessOperation)}, "+12300019082025Pass"...)
	frame := Encode(150, payload)

	require.Len(t, frame, HeaderSize+len(payload)+TrailerSize)
	assert.Equal(t, []byte{STX, MasterAddress, 150, byte(len(payload) + 3)}, frame[:HeaderSize])
	assert.Equal(t, payload, frame[HeaderSize:HeaderSize+len(payload)])
	// BCC "72"
	assert.Equal(t, byte(55), frame[len(frame)-3])
	assert.Equal(t, byte(50), frame[len(frame)-2])
	assert.Equal(t, ETX, frame[len(frame)-1])
}

func TestEncode_CheckStatus(t *testing.T) {
	frame := Encode(150, []byte{byte(CmdCheckDeviceStatus)})
	assert.Equal(t, []byte{2, 255, 150, 4, 10, 54, 53, 3}, frame)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{byte(CmdReadCard)},
		append([]byte{byte(CmdSetDeviceDateTime)}, "093205015150825"...),
		make([]byte, 252),
	}
	for addr := 0; addr <= 255; addr++ {
		for _, p := range payloads {
			got, err := Decode(Encode(byte(addr), p))
			require.NoError(t, err, "addr=%d len=%d", addr, len(p))
			assert.Equal(t, p, got)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []byte
		wantErr error
	}{
		{"正常应答", []byte{2, 150, 255, 4, 111, 48, 48, 3}, []byte{111}, nil},
		{"前导噪声", []byte{0xAA, 0x00, 2, 150, 255, 4, 111, 48, 48, 3}, []byte{111}, nil},
		{"空 payload", []byte{2, 150, 255, 3, 48, 48, 3}, []byte{}, nil},
		{"缺少起始标记", []byte{255, 150, 10, 3}, nil, ErrNoStartMarker},
		{"缺少结束标记", []byte{2, 255, 150, 10}, nil, ErrNoEndMarker},
		{"空缓冲区", nil, nil, ErrNoStartMarker},
		{"LEN 小于 3", []byte{2, 150, 255, 2, 3}, nil, ErrBadLength},
		{"LEN 越界", []byte{2, 150, 255, 40, 111, 3}, nil, ErrBadLength},
		{"帧头不完整", []byte{2, 3}, nil, ErrBadLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrMalformedFrame)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_DoesNotAliasInput(t *testing.T) {
	buf := []byte{2, 150, 255, 4, 111, 48, 48, 3}
	got, err := Decode(buf)
	require.NoError(t, err)
	buf[4] = 'x'
	assert.Equal(t, []byte{111}, got)
}

func TestCodec_VerifyChecksum(t *testing.T) {
	strict := Codec{VerifyChecksum: true}

	t.Run("校验通过", func(t *testing.T) {
		frame := Encode(150, []byte("o"))
		got, err := strict.Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, []byte("o"), got)
	})

	t.Run("校验失败", func(t *testing.T) {
		_, err := strict.Decode([]byte{2, 150, 255, 4, 111, 49, 49, 3})
		require.ErrorIs(t, err, ErrChecksumMismatch)
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("缺少校验字节", func(t *testing.T) {
		_, err := strict.Decode([]byte{2, 150, 255, 4, 111, 3})
		assert.ErrorIs(t, err, ErrBadLength)
	})

	t.Run("宽松模式忽略校验", func(t *testing.T) {
		got, err := Codec{}.Decode([]byte{2, 150, 255, 4, 111, 49, 49, 3})
		require.NoError(t, err)
		assert.Equal(t, []byte{111}, got)
	})
}
