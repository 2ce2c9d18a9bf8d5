package solana

import (
	"context"
	"errors"
	"testing"

	"token-monitor/internal/models"
	"token-monitor/internal/monitors"
	"token-monitor/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenProgram    = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	metadataProgram = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	systemProgram   = "11111111111111111111111111111111"

	walletA = "6p6xgHyF7AeE6TZkSmFsko444wqoP15icUSqi2jfGiPN"
	walletB = "FUAfBo2jgks6gB4Z4LfZkqSZgzNucisEHqnNebaRxM1P"
	mint    = "So11111111111111111111111111111111111111112"
	other   = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

// MockEventEmitter records reports for assertions
type MockEventEmitter struct {
	emitted []models.TokenCreationReport
}

func (m *MockEventEmitter) EmitEvent(report models.TokenCreationReport) error {
	m.emitted = append(m.emitted, report)
	return nil
}

// fakeClient serves canned signatures and transactions
type fakeClient struct {
	signatures map[string][]SignatureInfo
	sigErrors  map[string]error
	txs        map[string]*Transaction
	txErrors   map[string]error
	txCalls    map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		signatures: make(map[string][]SignatureInfo),
		sigErrors:  make(map[string]error),
		txs:        make(map[string]*Transaction),
		txErrors:   make(map[string]error),
		txCalls:    make(map[string]int),
	}
}

func (f *fakeClient) GetSignatures(_ context.Context, address string, _ int) ([]SignatureInfo, error) {
	if err := f.sigErrors[address]; err != nil {
		return nil, err
	}
	return f.signatures[address], nil
}

func (f *fakeClient) GetTransaction(_ context.Context, signature string) (*Transaction, error) {
	f.txCalls[signature]++
	if err := f.txErrors[signature]; err != nil {
		return nil, err
	}
	tx, ok := f.txs[signature]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func int64Ptr(v int64) *int64 { return &v }

func setupTestMonitor(addresses ...string) (*SolanaMonitor, *fakeClient, *MockEventEmitter, *observability.Metrics) {
	emitter := &MockEventEmitter{}
	metrics := observability.NewMetrics()
	base := monitors.NewBaseMonitor(models.Solana, addresses, "https://solscan.io/tx/", nil, emitter, metrics)
	client := newFakeClient()
	monitor := NewSolanaMonitor(base, client, Config{
		TxLimit:           5,
		TokenProgramID:    tokenProgram,
		MetadataProgramID: metadataProgram,
	})
	return monitor, client, emitter, metrics
}

func tokenTx(sig string, accounts ...string) *Transaction {
	return &Transaction{
		Signature:   sig,
		AccountKeys: accounts,
		Instructions: []Instruction{
			{ProgramID: systemProgram},
			{ProgramID: tokenProgram, Accounts: accounts[:1]},
		},
	}
}

func TestSolanaMonitor_Classify(t *testing.T) {
	monitor, _, _, _ := setupTestMonitor(walletA, walletB)

	tests := []struct {
		name            string
		tx              *Transaction
		expected        []models.Classification
		expectedCreator []string
	}{
		{
			name:     "no monitored address",
			tx:       tokenTx("s1", other, mint, tokenProgram),
			expected: nil,
		},
		{
			name:            "monitored address at any position",
			tx:              tokenTx("s2", other, mint, walletB, tokenProgram),
			expected:        []models.Classification{models.SPLTokenCreation},
			expectedCreator: []string{walletB},
		},
		{
			name:            "every monitored address present is flagged once",
			tx:              tokenTx("s3", walletB, mint, walletA, walletB, tokenProgram),
			expected:        []models.Classification{models.SPLTokenCreation},
			expectedCreator: []string{walletB, walletA},
		},
		{
			name: "token and metadata instructions evaluated independently",
			tx: &Transaction{
				AccountKeys: []string{walletA, mint, tokenProgram, metadataProgram},
				Instructions: []Instruction{
					{ProgramID: metadataProgram},
					{ProgramID: tokenProgram},
					{ProgramID: systemProgram},
					{ProgramID: tokenProgram},
				},
			},
			expected: []models.Classification{
				models.TokenMetadataEvent,
				models.SPLTokenCreation,
				models.SPLTokenCreation,
			},
			expectedCreator: []string{walletA},
		},
		{
			name: "unrelated programs only",
			tx: &Transaction{
				AccountKeys:  []string{walletA, other},
				Instructions: []Instruction{{ProgramID: systemProgram}},
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := monitor.Classify("sig", int64Ptr(1700913045), tt.tx)

			var got []models.Classification
			for _, r := range reports {
				got = append(got, r.Classification)
				assert.Equal(t, "sig", r.TxHash)
				assert.Equal(t, "2023-11-25 06:50:45 AM ET", r.FormattedTime)
				assert.Equal(t, tt.tx.AccountKeys, r.Accounts)
				if r.Classification == models.SPLTokenCreation {
					assert.Equal(t, tt.expectedCreator, r.CreatorAccounts)
				} else {
					assert.Empty(t, r.CreatorAccounts)
				}
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSolanaMonitor_PollOnce_Dedup(t *testing.T) {
	monitor, client, emitter, _ := setupTestMonitor(walletA)

	client.signatures[walletA] = []SignatureInfo{
		{Signature: "sig1", BlockTime: int64Ptr(1700913045)},
		{Signature: "sig2"},
	}
	client.txs["sig1"] = tokenTx("sig1", walletA, mint, tokenProgram)
	client.txs["sig2"] = &Transaction{
		Signature:    "sig2",
		BlockTime:    int64Ptr(1700913100),
		AccountKeys:  []string{walletA, metadataProgram},
		Instructions: []Instruction{{ProgramID: metadataProgram}},
	}

	stats, err := monitor.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CycleStats{Units: 1, Seen: 2, New: 2, Reports: 2}, stats)
	require.Len(t, emitter.emitted, 2)
	assert.Equal(t, models.SPLTokenCreation, emitter.emitted[0].Classification)
	assert.Equal(t, []string{walletA}, emitter.emitted[0].CreatorAccounts)
	assert.Equal(t, models.TokenMetadataEvent, emitter.emitted[1].Classification)
	assert.Equal(t, int64(1700913100), *emitter.emitted[1].BlockTime, "falls back to the transaction block time")
	assert.Equal(t, "https://solscan.io/tx/sig1", emitter.emitted[0].ExplorerURL)

	// second poll sees the same signatures plus a new one
	client.signatures[walletA] = append([]SignatureInfo{{Signature: "sig3"}}, client.signatures[walletA]...)
	client.txs["sig3"] = tokenTx("sig3", walletA, tokenProgram)

	stats, err = monitor.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Seen)
	assert.Equal(t, 1, stats.New)
	require.Len(t, emitter.emitted, 3)
	assert.Equal(t, "sig3", emitter.emitted[2].TxHash)
	assert.Equal(t, 1, client.txCalls["sig1"], "known signatures are not fetched again")
	assert.Equal(t, 3, monitor.KnownTransactions())
}

func TestSolanaMonitor_PollOnce_AddressFailureIsolated(t *testing.T) {
	third := "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	monitor, client, emitter, metrics := setupTestMonitor(walletA, walletB, third)

	client.sigErrors[walletB] = errors.New("connection reset")
	client.signatures[walletA] = []SignatureInfo{{Signature: "a1"}}
	client.signatures[third] = []SignatureInfo{{Signature: "c1"}}
	client.txs["a1"] = tokenTx("a1", walletA, tokenProgram)
	client.txs["c1"] = tokenTx("c1", third, tokenProgram)

	stats, err := monitor.PollOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Units)
	assert.Equal(t, 1, stats.Errors)
	require.Len(t, emitter.emitted, 2)
	assert.Equal(t, "a1", emitter.emitted[0].TxHash)
	assert.Equal(t, "c1", emitter.emitted[1].TxHash)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RPCErrorsTotal.WithLabelValues("Solana", "getSignaturesForAddress")))
}

func TestSolanaMonitor_PollOnce_FailedDetailIsNotRetried(t *testing.T) {
	monitor, client, emitter, _ := setupTestMonitor(walletA)

	client.signatures[walletA] = []SignatureInfo{{Signature: "flaky"}, {Signature: "missing"}, {Signature: "ok"}}
	client.txErrors["flaky"] = errors.New("timeout")
	client.txs["ok"] = tokenTx("ok", walletA, tokenProgram)

	stats, err := monitor.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Errors)
	require.Len(t, emitter.emitted, 1)
	assert.Equal(t, "ok", emitter.emitted[0].TxHash)

	// the transient failure is gone, but the id was already recorded
	delete(client.txErrors, "flaky")
	client.txs["flaky"] = tokenTx("flaky", walletA, tokenProgram)

	_, err = monitor.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, emitter.emitted, 1)
	assert.Equal(t, 1, client.txCalls["flaky"])
}

func TestSolanaMonitor_PollOnce_ContextCancelled(t *testing.T) {
	monitor, client, emitter, _ := setupTestMonitor(walletA)
	client.signatures[walletA] = []SignatureInfo{{Signature: "s"}}
	client.txs["s"] = tokenTx("s", walletA, tokenProgram)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := monitor.PollOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, emitter.emitted)
	assert.Equal(t, 0, monitor.KnownTransactions())
}
