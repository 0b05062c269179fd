package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/storage"
	"github.com/agentstation/fieldmap/pkg/storage/memory"
	"github.com/agentstation/fieldmap/pkg/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return memory.New()
	})
}

func TestValuesAreCopied(t *testing.T) {
	b := memory.New()
	v := []byte("abc")
	require.NoError(t, b.Set(context.Background(), "k", v))
	v[0] = 'z'

	got, err := b.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := b.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, b.Writes())
}
