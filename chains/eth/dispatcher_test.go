package eth

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func signTx(t *testing.T, tx *etypes.Transaction) *etypes.Transaction {
	privateKey, err := crypto.HexToECDSA("fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19")
	require.Nil(t, err)

	signedTx, err := etypes.SignTx(tx, etypes.NewEIP155Signer(big.NewInt(84532)), privateKey)
	require.Nil(t, err)

	return signedTx
}

func rawTestTx(t *testing.T) ([]byte, *etypes.Transaction) {
	tx := signTx(t, etypes.NewTransaction(0, common.Address{1}, big.NewInt(1), 22000, big.NewInt(1), nil))
	bz, err := tx.MarshalBinary()
	require.Nil(t, err)

	return bz, tx
}

func TestDispatcher(t *testing.T) {
	broadcastAt := time.Unix(1000, 0)

	t.Run("dispatch_success", func(t *testing.T) {
		raw, tx := rawTestTx(t)
		var sent common.Hash
		client := &MockEthClient{
			SendTransactionFunc: func(ctx context.Context, tx *etypes.Transaction) error {
				sent = tx.Hash()
				return nil
			},
		}

		dispatcher := NewEthDispatcher("flashblock", client)
		dispatcher.now = func() time.Time { return broadcastAt }

		handle, err := dispatcher.Dispatch(context.Background(), raw)
		require.Nil(t, err)
		require.Equal(t, tx.Hash(), handle.Hash)
		require.Equal(t, tx.Hash(), sent)
		require.Equal(t, broadcastAt, handle.BroadcastAt)
	})

	t.Run("already_known", func(t *testing.T) {
		raw, tx := rawTestTx(t)
		client := &MockEthClient{
			SendTransactionFunc: func(ctx context.Context, tx *etypes.Transaction) error {
				return fmt.Errorf("already known")
			},
		}

		dispatcher := NewEthDispatcher("flashblock", client)
		handle, err := dispatcher.Dispatch(context.Background(), raw)
		require.Nil(t, err)
		require.Equal(t, tx.Hash(), handle.Hash)
	})

	t.Run("rejected", func(t *testing.T) {
		raw, _ := rawTestTx(t)
		client := &MockEthClient{
			SendTransactionFunc: func(ctx context.Context, tx *etypes.Transaction) error {
				return fmt.Errorf("nonce too low")
			},
		}

		dispatcher := NewEthDispatcher("flashblock", client)
		handle, err := dispatcher.Dispatch(context.Background(), raw)
		require.NotNil(t, err)
		require.Nil(t, handle)
	})

	t.Run("bad_bytes", func(t *testing.T) {
		called := false
		client := &MockEthClient{
			SendTransactionFunc: func(ctx context.Context, tx *etypes.Transaction) error {
				called = true
				return nil
			},
		}

		dispatcher := NewEthDispatcher("flashblock", client)
		_, err := dispatcher.Dispatch(context.Background(), []byte{0x01, 0x02})
		require.NotNil(t, err)
		require.False(t, called)
	})
}
