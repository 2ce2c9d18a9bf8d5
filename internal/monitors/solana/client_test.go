package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"token-monitor/internal/models"
	"token-monitor/internal/monitors"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureSig1 = "4gXrHw1dqafC4Vo2RTmHpRK3d3x8aYXLg81BtsMBWrWgQu9n45JWDMTM5yGhR1Ug1Reo4sFi4apJe9Zmoexx9Tc9"
	fixtureSig2 = "3U1tFA9PdfkqMUAM3bDBW7stNbRSUFmxuc4LBu2chsgaGHSafbB1i3oLREKrtbGRTRH9YeDrV2GnbhYLofE6rW3S"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newRPCServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		result, ok := results[req.Method]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"Method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
}

func TestRPCClient_GetSignatures(t *testing.T) {
	server := newRPCServer(t, map[string]string{
		"getSignaturesForAddress": `[
			{"signature":"` + fixtureSig1 + `","slot":250000000,"blockTime":1700913045,"err":null,"memo":null,"confirmationStatus":"finalized"},
			{"signature":"` + fixtureSig2 + `","slot":249999999,"blockTime":null,"err":null,"memo":null,"confirmationStatus":"finalized"}
		]`,
	})
	defer server.Close()

	client := NewRPCClient(server.URL, &http.Client{Timeout: 5 * time.Second})
	sigs, err := client.GetSignatures(context.Background(), walletA, 5)
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, fixtureSig1, sigs[0].Signature)
	require.NotNil(t, sigs[0].BlockTime)
	assert.Equal(t, int64(1700913045), *sigs[0].BlockTime)
	assert.Equal(t, fixtureSig2, sigs[1].Signature)
	assert.Nil(t, sigs[1].BlockTime)
}

func TestRPCClient_GetSignatures_InvalidAddress(t *testing.T) {
	client := NewRPCClient("http://127.0.0.1:0", http.DefaultClient)
	_, err := client.GetSignatures(context.Background(), "not-a-key", 5)
	assert.Error(t, err)
}

func TestRPCClient_GetSignatures_RPCError(t *testing.T) {
	server := newRPCServer(t, map[string]string{})
	defer server.Close()

	client := NewRPCClient(server.URL, http.DefaultClient)
	_, err := client.GetSignatures(context.Background(), walletA, 5)
	assert.Error(t, err)
}

func TestRPCClient_GetTransaction_NotFound(t *testing.T) {
	server := newRPCServer(t, map[string]string{"getTransaction": `null`})
	defer server.Close()

	client := NewRPCClient(server.URL, http.DefaultClient)
	tx, err := client.GetTransaction(context.Background(), fixtureSig1)
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

// encodedTokenTransaction builds a signed-shape transaction paid by walletA
// with one token-program instruction touching the wrapped SOL mint.
func encodedTokenTransaction(t *testing.T) string {
	t.Helper()

	inst := solanago.NewInstruction(
		solanago.MustPublicKeyFromBase58(tokenProgram),
		solanago.AccountMetaSlice{
			solanago.NewAccountMeta(solanago.MustPublicKeyFromBase58(mint), true, false),
		},
		[]byte{0},
	)
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{inst},
		solanago.Hash{},
		solanago.TransactionPayer(solanago.MustPublicKeyFromBase58(walletA)),
	)
	require.NoError(t, err)
	tx.Signatures = []solanago.Signature{solanago.MustSignatureFromBase58(fixtureSig1)}

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestRPCClient_GetTransaction_Decodes(t *testing.T) {
	server := newRPCServer(t, map[string]string{
		"getTransaction": `{"slot":250000000,"blockTime":1700913045,"meta":null,` +
			`"transaction":["` + encodedTokenTransaction(t) + `","base64"]}`,
	})
	defer server.Close()

	client := NewRPCClient(server.URL, http.DefaultClient)
	tx, err := client.GetTransaction(context.Background(), fixtureSig1)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, fixtureSig1, tx.Signature)
	assert.Equal(t, []string{walletA, mint, tokenProgram}, tx.AccountKeys)
	require.Len(t, tx.Instructions, 1)
	assert.Equal(t, tokenProgram, tx.Instructions[0].ProgramID)
	assert.Equal(t, []string{mint}, tx.Instructions[0].Accounts)
	require.NotNil(t, tx.BlockTime)
	assert.Equal(t, int64(1700913045), *tx.BlockTime)

	monitor := NewSolanaMonitor(
		monitors.NewBaseMonitor(models.Solana, []string{walletA}, "https://solscan.io/tx/", nil, nil, nil),
		client,
		Config{TxLimit: 5, TokenProgramID: tokenProgram, MetadataProgramID: metadataProgram},
	)
	reports := monitor.Classify(tx.Signature, tx.BlockTime, tx)
	require.Len(t, reports, 1)
	assert.Equal(t, models.SPLTokenCreation, reports[0].Classification)
	assert.Equal(t, []string{walletA}, reports[0].CreatorAccounts)
	assert.Equal(t, "2023-11-25 06:50:45 AM ET", reports[0].FormattedTime)
}

func TestRPCClient_GetTransaction_Malformed(t *testing.T) {
	// one signature announced, none present
	truncated := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	server := newRPCServer(t, map[string]string{
		"getTransaction": `{"slot":1,"blockTime":null,"meta":null,"transaction":["` + truncated + `","base64"]}`,
	})
	defer server.Close()

	client := NewRPCClient(server.URL, http.DefaultClient)
	tx, err := client.GetTransaction(context.Background(), fixtureSig1)
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, ErrMalformedTransaction)
}

func TestDial_Unreachable(t *testing.T) {
	server := newRPCServer(t, map[string]string{})
	defer server.Close()

	_, err := Dial(context.Background(), server.URL, http.DefaultClient)
	assert.Error(t, err)
}

func TestKeyAt(t *testing.T) {
	keys := []string{"a", "b"}
	assert.Equal(t, "b", keyAt(keys, 1))
	assert.Equal(t, "", keyAt(keys, 2))
	assert.Equal(t, "", keyAt(keys, -1))
}
