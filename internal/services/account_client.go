package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"social-service/internal/apperrors"
)

type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// AccountDirectory is the slice of the external accounts service this engine
// needs: existence checks and display names.
type AccountDirectory interface {
	GetAccount(ctx context.Context, id int64) (*Account, error)
}

type AccountClient struct {
	client  *http.Client
	baseURL string
}

func NewAccountClient(baseURL string) *AccountClient {
	return &AccountClient{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
	}
}

func (c *AccountClient) GetAccount(ctx context.Context, id int64) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/accounts/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.New(apperrors.KindNotFound, "account not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("accounts service returned status %d", resp.StatusCode)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, err
	}
	return &account, nil
}
