package pool

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/mcdev12/dynasty/go/clients"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// ADPFeed yields live ADP values keyed by player id.
type ADPFeed interface {
	ADP(ctx context.Context) (map[string]float64, error)
}

// ADPClient reads ADP from an HTTP endpoint returning
// [{"id": "...", "name": "...", "adp": 12.3}, ...].
type ADPClient struct {
	base     *clients.BaseClient
	endpoint string
}

func NewADPClient(baseURL, endpoint string) *ADPClient {
	base := clients.NewBaseClient(baseURL)
	base.SetHeader("Accept", "application/json")
	return &ADPClient{base: base, endpoint: endpoint}
}

type adpRecord struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	ADP  float64 `json:"adp"`
}

func (c *ADPClient) ADP(ctx context.Context) (map[string]float64, error) {
	body, err := c.base.Get(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch adp: %w", err)
	}
	var records []adpRecord
	if err := sonic.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode adp: %w", err)
	}

	adp := make(map[string]float64, len(records))
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = models.PlayerIDFromName(r.Name)
		}
		if id == "" || r.ADP <= 0 {
			continue
		}
		adp[id] = r.ADP
	}
	return adp, nil
}
