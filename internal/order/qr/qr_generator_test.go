package qr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePass() PickupPass {
	return PickupPass{
		OrderID:     7,
		OrderNumber: "ord_1756400000_000001",
		UserID:      3,
		Total:       21.40,
		IssuedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGenerateEncryptedQRProducesPNG(t *testing.T) {
	gen := NewQRGenerator("test-secret-key")

	qrBytes, err := gen.GenerateEncryptedQR(samplePass())
	require.NoError(t, err)
	require.NotEmpty(t, qrBytes)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, qrBytes[:4])
}

func TestGenerateEncryptedQRUsesRandomIV(t *testing.T) {
	gen := NewQRGenerator("test-secret-key")
	pass := samplePass()

	first, err := gen.GenerateEncryptedQR(pass)
	require.NoError(t, err)
	second, err := gen.GenerateEncryptedQR(pass)
	require.NoError(t, err)

	// Random IV means the same pass never encodes to the same image.
	assert.NotEqual(t, first, second)
}

func TestGenerateEncryptedQRDiffersPerSecret(t *testing.T) {
	pass := samplePass()

	first, err := NewQRGenerator("secret-one").GenerateEncryptedQR(pass)
	require.NoError(t, err)
	second, err := NewQRGenerator("secret-two").GenerateEncryptedQR(pass)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
