package utils

import (
	"crypto/rand"
	"hash/fnv"
	mathrand "math/rand"
	"os"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// codeAlphabet 随机码使用的字符，只含大写字母和数字
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// commissionNode 生成佣金单号的雪花节点，首次使用时按主机名选择节点ID
var commissionNode = sync.OnceValue(func() *snowflake.Node {
	host, _ := os.Hostname()
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	n, err := snowflake.NewNode(int64(h.Sum32() % 1024))
	if err != nil {
		n, _ = snowflake.NewNode(1)
	}
	return n
})

// GenerateRandomCode 生成length位的随机码，用作令牌jti等一次性标识
func GenerateRandomCode(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// 系统随机源不可用
		for i := range buf {
			buf[i] = codeAlphabet[mathrand.Intn(len(codeAlphabet))]
		}
		return string(buf)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// GenerateCommissionNo 生成佣金单号
// "CM"加雪花ID的base36编码，全局唯一且大致按时间递增
func GenerateCommissionNo() string {
	return "CM" + commissionNode().Generate().Base36()
}
