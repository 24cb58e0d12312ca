package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
)

var _ ledger.Mirror = (*MockMirror)(nil)

type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) PutBlock(ctx context.Context, b *ledger.Block) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
