package utils

import "crypto/rand"

// 促销码字符集，去掉易混淆的 0/O/1/I
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode 生成指定长度的随机大写代码（促销码等）
func GenerateCode(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeCharset[int(b[i])%len(codeCharset)]
	}
	return string(b), nil
}
