package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GenerateVerificationCode draws a uniformly random numeric code
func GenerateVerificationCode() string {
	return randomDigits(CodeLength)
}

// GenerateReferenceNumber builds <PREFIX>-<timestamp>-<4 random digits>
func GenerateReferenceNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format(ReferenceTimeLayout), randomDigits(ReferenceSuffixDigits))
}

// RenterCode derives the renter identifier from the application and the day it was created
func RenterCode(applicationID int64, now time.Time) string {
	return fmt.Sprintf("RNT-%s-%06d", now.Format("20060102"), applicationID)
}

// ContractNumber derives the lease contract number
func ContractNumber(applicationID int64, now time.Time) string {
	return fmt.Sprintf("LC-%d-%06d", now.Year(), applicationID)
}

// CertificateNumber derives the stall rights certificate number
func CertificateNumber(applicationID int64, now time.Time) string {
	return fmt.Sprintf("SRC-%d-%06d", now.Year(), applicationID)
}

func randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
