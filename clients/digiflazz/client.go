package digiflazz

import (
	// Go Internal Packages
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"
)

type Client struct {
	baseURL  string
	username string
	apiKey   string
	http     *http.Client
}

func NewClient(baseURL, username, apiKey string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type transactionRequest struct {
	Username     string `json:"username"`
	BuyerSkuCode string `json:"buyer_sku_code"`
	CustomerNo   string `json:"customer_no"`
	RefID        string `json:"ref_id"`
	Sign         string `json:"sign"`
}

type transactionResponse struct {
	Data struct {
		RefID        string `json:"ref_id"`
		CustomerNo   string `json:"customer_no"`
		BuyerSkuCode string `json:"buyer_sku_code"`
		Status       string `json:"status"`
		Message      string `json:"message"`
		RC           string `json:"rc"`
		SN           string `json:"sn"`
		Price        int    `json:"price"`
		TrxID        string `json:"trx_id"`
	} `json:"data"`
}

// sign computes md5(username + apiKey + refID), the per-request
// signature the API expects.
func (c *Client) sign(refID string) string {
	sum := md5.Sum([]byte(c.username + c.apiKey + refID))
	return hex.EncodeToString(sum[:])
}

// PurchaseOrQuery submits a purchase. The upstream treats a repeated
// call with an already-known ref_id as a status query, not a new
// charge; reconciliation depends on that contract.
func (c *Client) PurchaseOrQuery(ctx context.Context, productCode, destination, refID string) (models.ProviderResult, error) {
	reqBody := transactionRequest{
		Username:     c.username,
		BuyerSkuCode: productCode,
		CustomerNo:   destination,
		RefID:        refID,
		Sign:         c.sign(refID),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("digiflazz", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction", bytes.NewReader(payload))
	if err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("digiflazz", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("digiflazz", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ProviderResult{}, errors.UpstreamErr("digiflazz",
			fmt.Errorf("unexpected http status %d", resp.StatusCode))
	}

	var body transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("digiflazz", err)
	}

	status := normalizeStatus(body.Data.Status)
	if status == "" {
		return models.ProviderResult{}, errors.UpstreamErr("digiflazz",
			fmt.Errorf("unrecognized status %q (rc %s)", body.Data.Status, body.Data.RC))
	}

	return models.ProviderResult{
		Status:       status,
		Cost:         body.Data.Price,
		SerialNumber: body.Data.SN,
		Message:      body.Data.Message,
		ProviderTxID: body.Data.TrxID,
	}, nil
}

func normalizeStatus(s string) string {
	switch s {
	case "Sukses", "sukses":
		return models.StatusSukses
	case "Pending", "pending":
		return models.StatusPending
	case "Gagal", "gagal":
		return models.StatusGagal
	}
	return ""
}
