package application

import (
	"context"
	"testing"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/logging"
	"github.com/agentstation/fieldmap/pkg/storage"
	"github.com/agentstation/fieldmap/pkg/storage/memory"
)

// NewTestMock returns a Mock serving a client over the embedded sample
// catalog and an in-memory backend. The default area is selected.
func NewTestMock(t testing.TB) (*Mock, fieldmap.Client) {
	t.Helper()
	return NewTestMockOn(t, memory.New())
}

// NewTestMockOn is NewTestMock over the given backend.
func NewTestMockOn(t testing.TB, backend storage.Backend) (*Mock, fieldmap.Client) {
	t.Helper()

	ctx := context.Background()
	cat, err := catalogs.Load(ctx, catalogs.Embedded(constants.DefaultCatalogFile),
		catalogs.WithOverlaySource(catalogs.Embedded(constants.DefaultDescriptionsFile)),
		catalogs.WithLogger(&logging.Nop),
	)
	if err != nil {
		t.Fatalf("load sample catalog: %v", err)
	}

	store := collection.Open(ctx, backend, collection.WithLogger(&logging.Nop))
	client, err := fieldmap.New(cat, store,
		fieldmap.WithLogger(&logging.Nop),
		fieldmap.WithInitialArea(constants.DefaultArea),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return &Mock{
		ClientFunc: func(context.Context) (fieldmap.Client, error) { return client, nil },
	}, client
}
