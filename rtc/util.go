package rtc

import (
	"github.com/pion/randutil"
)

const (
	ssrcLowerBound uint32 = 800000000
	ssrcUpperBound uint32 = 900000000

	runesAlphaNumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var globalMathRandomGenerator = randutil.NewMathRandomGenerator()

func GenerateSSRC() uint32 {
	return ssrcLowerBound + uint32(globalMathRandomGenerator.Intn(int(ssrcUpperBound-ssrcLowerBound)))
}

// RandomString returns a crypto random alphanumeric string, used for ice credentials.
func RandomString(size int) (string, error) {
	return randutil.GenerateCryptoRandomString(size, runesAlphaNumeric)
}
