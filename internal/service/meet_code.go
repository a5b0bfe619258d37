package service

import (
	"crypto/rand"
	"math/big"
)

const meetCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateMeetCode 生成大写字母与数字组成的随机加入码
func generateMeetCode(length int) (string, error) {
	base := big.NewInt(int64(len(meetCodeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		buf[i] = meetCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
