package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const referenceSuffixLength = 6
const letterBytes = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateReferenceNumber produces the human-facing receipt number printed
// on enrollment receipts, e.g. SRP-20260115-7K2M9Q. The payment record's
// ReferenceID (a UUID) remains the join key.
func GenerateReferenceNumber() string {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	b := make([]byte, referenceSuffixLength)
	for i := range b {
		b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
	}

	return fmt.Sprintf("SRP-%s-%s", time.Now().Format("20060102"), string(b))
}
