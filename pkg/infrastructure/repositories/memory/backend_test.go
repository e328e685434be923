package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/document"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/document/documenttest"
)

func TestBackend(t *testing.T) {
	documenttest.Run(t, func(t *testing.T) document.Backend { return NewBackend() })
}

func TestBackend_ViewIsReadOnly(t *testing.T) {
	b := NewBackend()
	err := b.View(context.Background(), func(tx document.BucketTx) error {
		return tx.Put("users", "k", []byte("{}"))
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestBackend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewBackend().Update(ctx, func(document.BucketTx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
