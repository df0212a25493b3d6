// Package emrcrypto 提供记录处理核心使用的摘要、占位签名和可逆文本编码。
//
// 注意：本包不提供真实的机密性或真实性保证。
// Signature 不涉及密钥对，无法独立验证；Encode/Decode 仅是可逆编码，
// 用于兼容前端演示数据，而非加密。
package emrcrypto

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"time"
)

// Digest 计算输入 UTF-8 字节的完整 SHA-256 摘要（十六进制）
// 确定性：相同输入恒产生相同输出
func Digest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// DisplayDigest 展示用的截断摘要（"0x" 前缀 + 前 16 位十六进制 + "..."）
// 截断仅是界面习惯，不是安全属性；验证时使用完整摘要
func DisplayDigest(input string) string {
	return "0x" + Digest(input)[:16] + "..."
}

// Signature 生成占位签名：输入与当前时间的编码组合
// 这不是可验证的数字签名（没有密钥对参与），仅用于演示
func Signature(input string, at time.Time) string {
	timestamp := strconv.FormatInt(at.UnixMilli(), 10)
	combined := base64.StdEncoding.EncodeToString([]byte(input + timestamp))
	suffix := base64.StdEncoding.EncodeToString([]byte(timestamp))
	return "0x" + truncate(combined, 16) + "..." + truncate(suffix, 8)
}

// Encode 可逆文本编码（base64），模拟"加密"
func Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Decode 解码 Encode 的输出
// 永不失败：输入不是合法编码时原样返回，避免旧数据/损坏数据导致查看器崩溃
func Decode(s string) string {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(decoded)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
