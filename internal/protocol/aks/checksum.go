package aks

import "fmt"

// Xor 对所有字节做异或折叠，空输入返回 0
func Xor(b []byte) byte {
	var x byte
	for _, v := range b {
		x ^= v
	}
	return x
}

// Checksum 计算 BCC：异或结果格式化为两位大写十六进制字符
func Checksum(b []byte) string {
	return fmt.Sprintf("%02X", Xor(b))
}
