package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const scheduledSuffix = "?scheduled"

// MirrorClient answers finality queries from a Hedera mirror node REST API.
type MirrorClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewMirrorClient creates a MirrorClient with a bounded HTTP timeout.
func NewMirrorClient(baseURL string, timeout time.Duration) *MirrorClient {
	return &MirrorClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

var _ FinalityQuerier = (*MirrorClient)(nil)

type mirrorTransaction struct {
	ConsensusTimestamp string `json:"consensus_timestamp"`
	Result             string `json:"result"`
	Scheduled          bool   `json:"scheduled"`
	TransactionID      string `json:"transaction_id"`
}

type mirrorTransactionsResponse struct {
	Transactions []mirrorTransaction `json:"transactions"`
}

// MirrorTransactionID converts 0.0.1234@1700000000.000000001 to 0.0.1234-1700000000-000000001.
func MirrorTransactionID(transactionID string) (string, error) {
	account, validStart, ok := strings.Cut(transactionID, "@")
	if !ok || account == "" {
		return "", fmt.Errorf("malformed transaction id %q", transactionID)
	}
	seconds, nanos, ok := strings.Cut(validStart, ".")
	if !ok || seconds == "" || nanos == "" {
		return "", fmt.Errorf("malformed transaction id %q", transactionID)
	}
	return account + "-" + seconds + "-" + nanos, nil
}

// QueryTransactionFinality looks the transaction up on the mirror node.
// Not yet indexed means pending.
func (m *MirrorClient) QueryTransactionFinality(ctx context.Context, transactionID string) (*Finality, error) {
	scheduled := strings.HasSuffix(transactionID, scheduledSuffix)
	mirrorID, err := MirrorTransactionID(strings.TrimSuffix(transactionID, scheduledSuffix))
	if err != nil {
		return nil, err
	}

	endpoint := m.BaseURL + "/api/v1/transactions/" + url.PathEscape(mirrorID)
	if scheduled {
		endpoint += "?scheduled=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build mirror request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query mirror node: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &Finality{Status: FinalityPending}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mirror node returned status %d for %s", resp.StatusCode, transactionID)
	}

	var body mirrorTransactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode mirror response: %w", err)
	}

	for _, tx := range body.Transactions {
		if scheduled && !tx.Scheduled {
			continue
		}
		if tx.Result == "SUCCESS" {
			return &Finality{Status: FinalitySuccess, ConsensusTime: tx.ConsensusTimestamp}, nil
		}
		return &Finality{Status: FinalityFailed, ConsensusTime: tx.ConsensusTimestamp, ErrorMessage: tx.Result}, nil
	}
	return &Finality{Status: FinalityPending}, nil
}
